package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		ok      bool
	}{
		{"single token", "mB=AC:3F:A4:00:11:22", "AC:3F:A4:00:11:22", true},
		{"among others", "site=12&mB=AC:3F:A4:00:11:22&v=2", "AC:3F:A4:00:11:22", true},
		{"first wins", "mB=one&mB=two", "one", true},
		{"empty value", "a=1&mB=", "", true},
		{"uri query", "https://static.example.com/t?mB=00:1B:DC:0F:AA:BB&x=1", "00:1B:DC:0F:AA:BB", true},
		{"network printer", "mB=tcp://10.0.0.5:9100", "tcp://10.0.0.5:9100", true},
		{"absent", "site=12&v=2", "", false},
		{"empty payload", "", "", false},
		{"case sensitive", "mb=AC:3F", "", false},
		{"embedded key", "xmB=AC:3F", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAddress(tt.payload)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
