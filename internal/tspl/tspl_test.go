package tspl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommand_Density_Clamps(t *testing.T) {
	assert.Equal(t, "DENSITY 0\r\n", New().Density(-3).String())
	assert.Equal(t, "DENSITY 15\r\n", New().Density(40).String())
	assert.Equal(t, "DENSITY 7\r\n", New().Density(7).String())
}

func TestBuildImageJob(t *testing.T) {
	job := BuildImageJob(Job{
		X:          16,
		Y:          6,
		WidthBytes: 2,
		Height:     2,
		Bitmap:     []byte{0xAA, 0xBB, 0xCC, 0xDD},
		Density:    10,
	})

	want := "SIZE 4.0 mm,1.0 mm\r\n" +
		"GAP 2.0 mm,0.0 mm\r\n" +
		"DIRECTION 0,0\r\n" +
		"DENSITY 10\r\n" +
		"CLS\r\n" +
		"BITMAP 16,6,2,2,0,\xAA\xBB\xCC\xDD\r\n" +
		"PRINT 1\r\n"
	assert.Equal(t, want, string(job))
}
