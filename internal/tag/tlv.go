package tag

import (
	"errors"
	"fmt"
)

const (
	tlvNull       = 0x00
	tlvNDEF       = 0x03
	tlvTerminator = 0xFE
)

var ErrNoNDEF = errors.New("no NDEF message TLV found")

// ExtractNDEF locates the NDEF message TLV in raw tag memory (starting at the
// first user page) and returns its value.
func ExtractNDEF(memory []byte) ([]byte, error) {
	offset := 0
	for offset < len(memory) {
		t := memory[offset]
		switch t {
		case tlvNull:
			offset++
			continue
		case tlvTerminator:
			return nil, ErrNoNDEF
		}

		if offset+1 >= len(memory) {
			return nil, fmt.Errorf("%w: truncated TLV at %d", ErrMalformedMessage, offset)
		}
		length := int(memory[offset+1])
		valueStart := offset + 2
		if length == 0xFF {
			if offset+3 >= len(memory) {
				return nil, fmt.Errorf("%w: truncated TLV length at %d", ErrMalformedMessage, offset)
			}
			length = int(memory[offset+2])<<8 | int(memory[offset+3])
			valueStart = offset + 4
		}
		if valueStart+length > len(memory) {
			return nil, fmt.Errorf("%w: TLV at %d overruns memory", ErrMalformedMessage, offset)
		}

		if t == tlvNDEF {
			return memory[valueStart : valueStart+length], nil
		}
		offset = valueStart + length
	}
	return nil, ErrNoNDEF
}
