package logstream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineFilter_Feed(t *testing.T) {
	tests := []struct {
		name   string
		needle string
		chunks []string
		want   string
	}{
		{
			name:   "matching lines only",
			needle: "GET",
			chunks: []string{"GET /a\nPOST /b\nGET /c\n"},
			want:   "GET /a\nGET /c\n",
		},
		{
			name:   "line split across chunks",
			needle: "error",
			chunks: []string{"some err", "or here\nfine\n"},
			want:   "some error here\n",
		},
		{
			name:   "case sensitive",
			needle: "Error",
			chunks: []string{"error\nError\n"},
			want:   "Error\n",
		},
		{
			name:   "no match",
			needle: "zzz",
			chunks: []string{"a\nb\n"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLineFilter(tt.needle)
			var got strings.Builder
			for _, chunk := range tt.chunks {
				got.WriteString(f.feed(chunk))
			}
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestLineFilter_Flush(t *testing.T) {
	f := newLineFilter("tail")
	assert.Equal(t, "", f.feed("no newline tail"))
	assert.Equal(t, "no newline tail\n", f.flush())
	assert.Equal(t, "", f.flush(), "flush empties the carried line")

	f = newLineFilter("x")
	f.feed("nope")
	assert.Equal(t, "", f.flush())
}

func TestLineFilter_LongPartialLine(t *testing.T) {
	f := newLineFilter("needle")
	long := "needle" + strings.Repeat("a", maxPartialLine)
	got := f.feed(long)
	assert.Equal(t, long+"\n", got)
	assert.Empty(t, f.partial)
}

func TestSplitUTF8(t *testing.T) {
	euro := []byte("€") // 3 bytes

	tests := []struct {
		name         string
		in           []byte
		wantComplete string
		wantRest     []byte
	}{
		{"ascii", []byte("abc"), "abc", nil},
		{"empty", nil, "", nil},
		{"complete rune", append([]byte("a"), euro...), "a€", nil},
		{"one byte of rune", append([]byte("a"), euro[:1]...), "a", euro[:1]},
		{"two bytes of rune", append([]byte("a"), euro[:2]...), "a", euro[:2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			complete, rest := splitUTF8(tt.in)
			assert.Equal(t, tt.wantComplete, string(complete))
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}
