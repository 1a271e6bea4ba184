package zpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildImageLabel(t *testing.T) {
	got := BuildImageLabel(20, 100, 2, 2, []byte{0x0f, 0xa0, 0x00, 0xff})

	want := "^XA\n" +
		"^LL102\n" +
		"^FO20,100^GFA,4,4,2,0FA000FF^FS\n" +
		"^XZ\n"
	assert.Equal(t, want, string(got))
}

func TestCommand_Chain(t *testing.T) {
	got := New().Start().PrintWidth(832).Quantity(2).End().String()
	assert.Equal(t, "^XA\n^PW832\n^PQ2\n^XZ\n", got)
}
