package logstream

import "bytes"

const (
	esc = 0x1b
	bel = 0x07

	// maxEscapeCarry bounds how long an unterminated escape sequence is held
	// back waiting for its end.
	maxEscapeCarry = 4096
)

// splitPending returns the prefix of b that can be decoded now and the
// remainder to carry into the next read: a trailing escape sequence that is
// not finished yet, followed by any incomplete rune.
func splitPending(b []byte) (complete, rest []byte) {
	complete, rest = splitUTF8(b)
	if i := unfinishedEscape(complete); i >= 0 {
		return b[:i], b[i:]
	}
	return complete, rest
}

// unfinishedEscape returns the offset of an escape sequence that b ends in
// the middle of, or -1.
func unfinishedEscape(b []byte) int {
	for i := 0; i < len(b); {
		j := bytes.IndexByte(b[i:], esc)
		if j < 0 {
			return -1
		}
		i += j
		n := escapeLen(b[i:])
		if n < 0 {
			if len(b)-i > maxEscapeCarry {
				return -1
			}
			return i
		}
		i += n
	}
	return -1
}

// escapeLen returns the length of the escape sequence at the start of b, or
// -1 when b ends before the sequence does.
func escapeLen(b []byte) int {
	if len(b) < 2 {
		return -1
	}
	switch b[1] {
	case '[':
		for i := 2; i < len(b); i++ {
			switch c := b[i]; {
			case c >= 0x40 && c <= 0x7e:
				return i + 1
			case c < 0x20 || c > 0x7e:
				// Malformed; the sequence ends here.
				return i
			}
		}
		return -1
	case ']', 'P', 'X', '^', '_':
		// String sequences end with BEL or ST (ESC \).
		for i := 2; i < len(b); i++ {
			switch b[i] {
			case bel:
				return i + 1
			case esc:
				if i+1 == len(b) {
					return -1
				}
				if b[i+1] == '\\' {
					return i + 2
				}
			}
		}
		return -1
	default:
		i := 1
		for i < len(b) && b[i] >= 0x20 && b[i] <= 0x2f {
			i++
		}
		if i == len(b) {
			return -1
		}
		return i + 1
	}
}
