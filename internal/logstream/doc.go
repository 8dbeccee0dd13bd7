// Package logstream follows the output of one container at a time.
//
// A Controller holds at most one stream, keyed by the active container id and
// its filter text. Activating a different key tears the old stream down before
// the new one starts, and the old stream's readers are fenced off so none of
// their output reaches the new buffers.
//
// Both output channels of a stream are read concurrently into a single text
// buffer. Control sequences are stripped, a filter keeps only complete lines
// containing its text, and multi-byte runes split across reads are carried
// over to the next read. While paused, new output collects in a pending
// buffer that is appended on resume.
package logstream
