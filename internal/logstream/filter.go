package logstream

import (
	"strings"
	"unicode/utf8"
)

// maxPartialLine bounds how much of an unterminated line the filter holds
// before judging it as a complete line.
const maxPartialLine = 64 * 1024

// lineFilter passes through complete lines containing needle. Partial lines
// are carried until their newline arrives.
type lineFilter struct {
	needle  string
	partial string
}

func newLineFilter(needle string) *lineFilter {
	return &lineFilter{needle: needle}
}

// feed consumes a chunk and returns the matching complete lines, each with
// its trailing newline.
func (f *lineFilter) feed(chunk string) string {
	data := f.partial + chunk
	var out strings.Builder
	for {
		idx := strings.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		if strings.Contains(data[:idx], f.needle) {
			out.WriteString(data[:idx+1])
		}
		data = data[idx+1:]
	}
	f.partial = data
	if len(f.partial) > maxPartialLine {
		out.WriteString(f.flush())
	}
	return out.String()
}

// flush returns the carried partial line, newline-terminated, if it matches.
func (f *lineFilter) flush() string {
	line := f.partial
	f.partial = ""
	if line == "" || !strings.Contains(line, f.needle) {
		return ""
	}
	return line + "\n"
}

// splitUTF8 returns the longest prefix of b that does not end inside a
// multi-byte rune, and the incomplete remainder.
func splitUTF8(b []byte) (complete, rest []byte) {
	// A rune is at most utf8.UTFMax bytes, so only the tail needs checking.
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return b, nil
		}
		return b[:i], b[i:]
	}
	return b, nil
}
