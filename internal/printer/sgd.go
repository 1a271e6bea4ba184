package printer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrBadResponse is returned when a setting reply cannot be parsed.
var ErrBadResponse = errors.New("malformed SGD response")

const (
	maxSGDResponse = 1024
	// consecutive empty reads tolerated before giving up
	maxIdleReads = 3
)

// GetSetting queries a printer setting over SGD (! U1 getvar) and returns its
// value without the surrounding quotes.
func GetSetting(rw io.ReadWriter, name string) (string, error) {
	if _, err := fmt.Fprintf(rw, "! U1 getvar \"%s\"\r\n", name); err != nil {
		return "", fmt.Errorf("send getvar %s: %w", name, err)
	}

	var resp []byte
	buf := make([]byte, 128)
	idle := 0
	for bytes.Count(resp, []byte{'"'}) < 2 {
		n, err := rw.Read(buf)
		resp = append(resp, buf[:n]...)
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("read getvar %s: %w", name, err)
		}
		if n == 0 {
			if err == io.EOF {
				return "", fmt.Errorf("%w: connection closed after %q", ErrBadResponse, resp)
			}
			idle++
			if idle >= maxIdleReads {
				return "", fmt.Errorf("getvar %s: %w", name, ErrTimeout)
			}
			continue
		}
		idle = 0
		if len(resp) > maxSGDResponse {
			return "", fmt.Errorf("%w: reply exceeds %d bytes", ErrBadResponse, maxSGDResponse)
		}
	}

	start := bytes.IndexByte(resp, '"')
	end := bytes.IndexByte(resp[start+1:], '"') + start + 1
	return string(resp[start+1 : end]), nil
}

// PrintWidth reads the print width setting as a float. It returns nil when
// the query fails or the value is not a number.
func PrintWidth(rw io.ReadWriter, setting string) *float64 {
	value, err := GetSetting(rw, setting)
	if err != nil {
		return nil
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil
	}
	return &width
}
