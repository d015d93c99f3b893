package core

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii", "hello,world\n", "hello,world\n"},
		{"valid multibyte", "Zoë,日本,😀", "Zoë,日本,😀"},
		{"invalid byte", "a\x80b", "a?b"},
		{"latin1 byte", "Jos\xE9,30", "Jos?,30"},
		{"truncated at end", "a\xC3", "a?"},
		{"truncated four byte", "x\xF0\x9F\x98", "x???"},
		{"empty", "", ""},
	}

	readers := map[string]func(io.Reader) io.Reader{
		"whole":    func(r io.Reader) io.Reader { return r },
		"one byte": iotest.OneByteReader,
		"half":     iotest.HalfReader,
		"data err": iotest.DataErrReader,
	}

	for _, tt := range tests {
		for rname, wrap := range readers {
			t.Run(tt.name+"/"+rname, func(t *testing.T) {
				got, err := io.ReadAll(NewUTF8Sanitizer(wrap(strings.NewReader(tt.input))))
				if err != nil {
					t.Fatalf("ReadAll: %v", err)
				}
				if string(got) != tt.want {
					t.Errorf("got %q, want %q", got, tt.want)
				}
			})
		}
	}
}

func TestUTF8Sanitizer_SmallBuffer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		size  int
		want  string
	}{
		{"three byte rune one byte at a time", "日", 1, "日"},
		{"three byte rune two bytes at a time", "日", 2, "日"},
		{"mixed text one byte at a time", "Zoë,30\n日本,41\n", 1, "Zoë,30\n日本,41\n"},
		{"invalid byte one byte at a time", "a\x80b\xC3", 1, "a?b?"},
		{"four byte rune three bytes at a time", "x😀y", 3, "x😀y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// OneByteReader makes every partial sequence cross a read.
			s := NewUTF8Sanitizer(iotest.OneByteReader(strings.NewReader(tt.input)))

			var out []byte
			buf := make([]byte, tt.size)
			for reads := 0; ; reads++ {
				if reads > 4*len(tt.input)+4 {
					t.Fatalf("no progress after %d reads, got %q", reads, out)
				}
				n, err := s.Read(buf)
				out = append(out, buf[:n]...)
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatal(err)
				}
				if n == 0 {
					t.Fatalf("Read returned 0, nil after %q", out)
				}
			}
			if string(out) != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("row,data\n", 100)
	cr := NewCountingReader(iotest.HalfReader(strings.NewReader(input)))

	if _, err := io.Copy(io.Discard, cr); err != nil {
		t.Fatal(err)
	}
	if cr.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", cr.BytesRead, len(input))
	}
}
