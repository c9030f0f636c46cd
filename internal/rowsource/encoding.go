package rowsource

// encoding.go normalises raw file bytes before CSV parsing. Spreadsheet
// exports from Windows often start with a UTF-8 byte order mark and may carry
// stray Latin-1 bytes; both would otherwise end up inside the first identifier
// or make a row fail validation for reasons invisible to the user.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Sanitizer replaces invalid UTF-8 bytes with U+FFFD while streaming.
// Multi-byte sequences split across reads are carried over to the next read.
type utf8Sanitizer struct {
	r   io.Reader
	buf []byte
	in  []byte // undecoded tail from the previous read
	out []byte // sanitized bytes not yet returned
	err error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, buf: make([]byte, 32*1024)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		n, err := s.r.Read(s.buf)
		s.in = append(s.in, s.buf[:n]...)
		s.err = err
		s.decode(err != nil)
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// decode moves complete runes from in to out. When final is false an
// incomplete trailing sequence stays in in.
func (s *utf8Sanitizer) decode(final bool) {
	i := 0
	for i < len(s.in) {
		if !final && !utf8.FullRune(s.in[i:]) {
			break
		}
		r, size := utf8.DecodeRune(s.in[i:])
		if r == utf8.RuneError && size == 1 {
			s.out = utf8.AppendRune(s.out, utf8.RuneError)
		} else {
			s.out = append(s.out, s.in[i:i+size]...)
		}
		i += size
	}
	s.in = append(s.in[:0], s.in[i:]...)
}

// normalize applies BOM stripping and UTF-8 sanitising in that order.
func normalize(r io.Reader) io.Reader {
	return newUTF8Sanitizer(skipBOM(r))
}
