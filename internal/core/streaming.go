package core

// streaming.go provides io.Reader stages applied to uploads before decoding:
//
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?' so every decoded
//     value can be served as JSON without mangling
//   - CountingReader: tracks bytes consumed for logging
//
// The BOM is handled by the Parser itself so chunked and in-memory input
// behave identically.

import (
	"io"
	"unicode/utf8"
)

// sanitizerBufSize is how many raw bytes the sanitizer reads at a time,
// independent of the caller's buffer size.
const sanitizerBufSize = 4 * 1024

// UTF8Sanitizer wraps an io.Reader and replaces invalid UTF-8 bytes on the
// fly. Multi-byte sequences split across reads are completed by the next
// read from the source, so any caller buffer size works, down to one byte.
type UTF8Sanitizer struct {
	reader  io.Reader
	raw     []byte // unsanitized bytes; only an incomplete tail survives a fill
	out     []byte // sanitized bytes not yet handed out
	scratch []byte
	err     error
}

// NewUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		reader: r,
		raw:    make([]byte, 0, sanitizerBufSize),
	}
}

// Read implements io.Reader. It reads from the source until it has at least
// one sanitized byte to return or the source fails.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// fill reads once from the source and sanitizes everything except an
// incomplete trailing sequence, which waits for the next fill. Once the
// source has failed the tail is flushed as well.
func (s *UTF8Sanitizer) fill() {
	n, err := s.reader.Read(s.raw[len(s.raw):cap(s.raw)])
	s.raw = s.raw[:len(s.raw)+n]
	if err != nil {
		s.err = err
	}

	end := len(s.raw)
	if s.err == nil {
		end -= incompleteTail(s.raw)
	}
	s.scratch = appendSanitized(s.scratch[:0], s.raw[:end])
	s.out = s.scratch
	s.raw = s.raw[:copy(s.raw, s.raw[end:])]
}

// appendSanitized appends data to dst with each invalid byte replaced by '?'.
func appendSanitized(dst, data []byte) []byte {
	if utf8.Valid(data) {
		return append(dst, data...)
	}
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, '?')
		} else {
			dst = append(dst, data[:size]...)
		}
		data = data[size:]
	}
	return dst
}

// incompleteTail returns how many trailing bytes start a multi-byte
// sequence that is not finished yet.
func incompleteTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(b) {
			if seqLen(b) > i {
				return i
			}
			return 0
		}
	}
	return 0
}

func seqLen(b byte) int {
	switch {
	case b < 0xC0:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
