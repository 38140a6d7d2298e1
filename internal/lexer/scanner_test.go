package lexer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScannerNextAndPeek(t *testing.T) {
	t.Parallel()

	s, err := NewScanner("test.expr", bytes.NewReader([]byte("ab")))
	require.NoError(t, err)

	require.Equal(t, byte('a'), s.Peek())

	b, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, byte('a'), b)

	s.Unread(1)
	b, err = s.Next()
	require.NoError(t, err)
	require.Equal(t, byte('a'), b, "expected 'a' after unread")

	s.Unread(10) // invalid, should do nothing
	b, err = s.Next()
	require.NoError(t, err)
	require.Equal(t, byte('b'), b)

	require.Equal(t, byte(0), s.Peek())

	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestScannerLocation(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name       string
		input      string
		steps      int
		filename   string
		wantString string
	}{
		{
			name:       "middle of second line",
			input:      "a\nbc\nde",
			steps:      4,
			filename:   "foo.expr",
			wantString: "foo.expr:2:2",
		},
		{
			name:       "start of file",
			input:      "abc",
			steps:      0,
			filename:   "bar.expr",
			wantString: "bar.expr:1:0",
		},
		{
			name:       "no filename",
			input:      "x\ny\nz",
			steps:      5,
			filename:   "",
			wantString: "3:1",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := NewScanner(tc.filename, bytes.NewReader([]byte(tc.input)))
			require.NoError(t, err)

			for range tc.steps {
				_, err := s.Next()
				require.NoError(t, err)
			}

			require.Equal(t, tc.wantString, s.Location().String())
		})
	}
}
