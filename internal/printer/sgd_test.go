package printer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted replays canned replies, one chunk per Read, and records writes.
type scripted struct {
	written bytes.Buffer
	replies [][]byte
	eof     bool
}

func (s *scripted) Write(p []byte) (int, error) { return s.written.Write(p) }

func (s *scripted) Read(p []byte) (int, error) {
	if len(s.replies) == 0 {
		if s.eof {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := copy(p, s.replies[0])
	s.replies = s.replies[1:]
	return n, nil
}

func TestGetSetting(t *testing.T) {
	rw := &scripted{replies: [][]byte{[]byte(`"83`), []byte(`2.0"`)}}

	value, err := GetSetting(rw, "ezpl.print_width")
	require.NoError(t, err)
	assert.Equal(t, "832.0", value)
	assert.Equal(t, "! U1 getvar \"ezpl.print_width\"\r\n", rw.written.String())
}

func TestGetSetting_Timeout(t *testing.T) {
	rw := &scripted{}

	_, err := GetSetting(rw, "ezpl.print_width")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGetSetting_ClosedMidReply(t *testing.T) {
	rw := &scripted{replies: [][]byte{[]byte(`"83`)}, eof: true}

	_, err := GetSetting(rw, "ezpl.print_width")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestPrintWidth(t *testing.T) {
	t.Run("numeric", func(t *testing.T) {
		rw := &scripted{replies: [][]byte{[]byte(`"384"`)}}
		width := PrintWidth(rw, "ezpl.print_width")
		require.NotNil(t, width)
		assert.Equal(t, 384.0, *width)
	})

	t.Run("not a number", func(t *testing.T) {
		rw := &scripted{replies: [][]byte{[]byte(`"?"`)}}
		assert.Nil(t, PrintWidth(rw, "ezpl.print_width"))
	})

	t.Run("no reply", func(t *testing.T) {
		assert.Nil(t, PrintWidth(&scripted{}, "ezpl.print_width"))
	})
}
