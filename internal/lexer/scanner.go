package lexer

import (
	"io"
)

// Scanner hands out the bytes of a source file one at a time and keeps
// track of the line/column of the most recently read byte.
type Scanner struct {
	filename string
	data     []byte
	index    int
}

func NewScanner(filename string, r io.Reader) (*Scanner, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		filename: filename,
		data:     data,
		index:    0,
	}, nil
}

func (s *Scanner) Next() (byte, error) {
	if s.index >= len(s.data) {
		return 0, io.EOF
	}

	b := s.data[s.index]
	s.index++

	return b, nil
}

// Peek returns the next byte without consuming it, or 0 at the end of input.
func (s *Scanner) Peek() byte {
	if s.index >= len(s.data) {
		return 0
	}

	return s.data[s.index]
}

func (s *Scanner) Unread(count int) {
	if count < 0 || count > s.index {
		return
	}

	s.index -= count
}

// Location returns the position of the last byte returned by Next.
func (s *Scanner) Location() Location {
	loc := Location{
		Filename: s.filename,
		Line:     1,
		Column:   0,
	}

	for i := range s.index {
		if s.data[i] == '\n' {
			loc.Line++
			loc.Column = 0
		} else {
			loc.Column++
		}
	}

	return loc
}
