package logstream

import "bytes"

// textBuffer accumulates log text up to limit bytes. Past the limit the
// oldest text is dropped at a line boundary. A zero limit never trims.
type textBuffer struct {
	data  []byte
	limit int
}

func (b *textBuffer) append(text string) {
	b.data = append(b.data, text...)
	b.trim()
}

func (b *textBuffer) appendBuffer(other *textBuffer) {
	b.data = append(b.data, other.data...)
	b.trim()
}

func (b *textBuffer) trim() {
	if b.limit <= 0 || len(b.data) <= b.limit {
		return
	}
	cut := len(b.data) - b.limit
	if nl := bytes.IndexByte(b.data[cut:], '\n'); nl >= 0 && cut+nl+1 < len(b.data) {
		cut += nl + 1
	}
	b.data = append(b.data[:0], b.data[cut:]...)
}

func (b *textBuffer) reset() {
	b.data = b.data[:0]
}

func (b *textBuffer) len() int {
	return len(b.data)
}

func (b *textBuffer) String() string {
	return string(b.data)
}
