package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState(t *testing.T) {
	s := Unpaired()
	_, ok := s.Address()
	assert.False(t, ok)
	assert.Equal(t, "unpaired", s.String())

	s = Paired("AC:3F:A4:00:11:22")
	addr, ok := s.Address()
	assert.True(t, ok)
	assert.Equal(t, "AC:3F:A4:00:11:22", addr)
	assert.Equal(t, "paired with AC:3F:A4:00:11:22", s.String())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "content unavailable", ContentUnavailable.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
