package tag

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// TNF values used when decoding records.
const (
	TNFEmpty     = 0x00
	TNFWellKnown = 0x01
	TNFMedia     = 0x02
	TNFAbsURI    = 0x03
)

var ErrMalformedMessage = errors.New("malformed NDEF message")

// Record is a single NDEF record.
type Record struct {
	TNF     byte
	Type    []byte
	ID      []byte
	Payload []byte
}

// Message is an ordered list of records, as delivered by one tag read.
type Message struct {
	Records []Record
}

// ParseMessage decodes raw NDEF message bytes into records. Decoding stops
// after the record carrying the ME flag.
func ParseMessage(raw []byte) ([]Record, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedMessage)
	}

	var records []Record
	offset := 0
	for offset < len(raw) {
		header := raw[offset]
		me := header&0x40 != 0
		sr := header&0x10 != 0
		il := header&0x08 != 0
		pos := offset + 1

		if pos >= len(raw) {
			return nil, fmt.Errorf("%w: truncated type length at %d", ErrMalformedMessage, pos)
		}
		typeLen := int(raw[pos])
		pos++

		var payloadLen int
		if sr {
			if pos >= len(raw) {
				return nil, fmt.Errorf("%w: truncated payload length at %d", ErrMalformedMessage, pos)
			}
			payloadLen = int(raw[pos])
			pos++
		} else {
			if pos+4 > len(raw) {
				return nil, fmt.Errorf("%w: truncated payload length at %d", ErrMalformedMessage, pos)
			}
			payloadLen = int(binary.BigEndian.Uint32(raw[pos : pos+4]))
			pos += 4
		}

		idLen := 0
		if il {
			if pos >= len(raw) {
				return nil, fmt.Errorf("%w: truncated id length at %d", ErrMalformedMessage, pos)
			}
			idLen = int(raw[pos])
			pos++
		}

		if pos+typeLen+idLen+payloadLen > len(raw) || payloadLen < 0 {
			return nil, fmt.Errorf("%w: record at %d overruns message", ErrMalformedMessage, offset)
		}

		rec := Record{TNF: header & 0x07}
		rec.Type = append([]byte(nil), raw[pos:pos+typeLen]...)
		pos += typeLen
		if idLen > 0 {
			rec.ID = append([]byte(nil), raw[pos:pos+idLen]...)
			pos += idLen
		}
		rec.Payload = append([]byte(nil), raw[pos:pos+payloadLen]...)
		pos += payloadLen

		records = append(records, rec)
		offset = pos
		if me {
			break
		}
	}

	return records, nil
}

// EncodeMessage is the inverse of ParseMessage. Records of up to 255 bytes
// use the short form.
func EncodeMessage(records []Record) []byte {
	var out []byte
	for i, rec := range records {
		header := rec.TNF & 0x07
		if i == 0 {
			header |= 0x80
		}
		if i == len(records)-1 {
			header |= 0x40
		}
		short := len(rec.Payload) <= 0xFF
		if short {
			header |= 0x10
		}
		if len(rec.ID) > 0 {
			header |= 0x08
		}

		out = append(out, header, byte(len(rec.Type)))
		if short {
			out = append(out, byte(len(rec.Payload)))
		} else {
			out = binary.BigEndian.AppendUint32(out, uint32(len(rec.Payload)))
		}
		if len(rec.ID) > 0 {
			out = append(out, byte(len(rec.ID)))
		}
		out = append(out, rec.Type...)
		out = append(out, rec.ID...)
		out = append(out, rec.Payload...)
	}
	return out
}

// NewTextRecord builds a well-known UTF-8 text record.
func NewTextRecord(text, lang string) Record {
	if lang == "" {
		lang = "en"
	}
	if len(lang) > 0x3F {
		lang = lang[:0x3F]
	}
	payload := append([]byte{byte(len(lang))}, lang...)
	payload = append(payload, text...)
	return Record{TNF: TNFWellKnown, Type: []byte("T"), Payload: payload}
}

func (r Record) isWellKnown(t byte) bool {
	return r.TNF == TNFWellKnown && len(r.Type) == 1 && r.Type[0] == t
}

// Text returns the record's content as a string. Text records lose their
// status byte and language code, URI records get their prefix expanded, and
// everything else is returned as raw payload text.
func (r Record) Text() string {
	switch {
	case r.isWellKnown('T'):
		if text, err := decodeTextPayload(r.Payload); err == nil {
			return text
		}
	case r.isWellKnown('U'):
		return decodeURIPayload(r.Payload)
	}
	return string(r.Payload)
}

func decodeTextPayload(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: text record without status byte", ErrMalformedMessage)
	}
	status := payload[0]
	start := 1 + int(status&0x3F)
	if start > len(payload) {
		return "", fmt.Errorf("%w: text record language overruns payload", ErrMalformedMessage)
	}
	body := payload[start:]

	if status&0x80 == 0 {
		if !utf8.Valid(body) {
			return "", fmt.Errorf("%w: text record is not UTF-8", ErrMalformedMessage)
		}
		return string(body), nil
	}

	// UTF-16, big endian unless a BOM says otherwise
	dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	text, err := dec.Bytes(body)
	if err != nil {
		return "", fmt.Errorf("decode UTF-16 text: %w", err)
	}
	return string(text), nil
}

// uriPrefixes is the URI identifier code table of the URI record type.
var uriPrefixes = [...]string{
	"", "http://www.", "https://www.", "http://", "https://", "tel:", "mailto:",
	"ftp://anonymous:anonymous@", "ftp://ftp.", "ftps://", "sftp://", "smb://",
	"nfs://", "ftp://", "dav://", "news:", "telnet://", "imap:", "rtsp://",
	"urn:", "pop:", "sip:", "sips:", "tftp:", "btspp://", "btl2cap://",
	"btgoep://", "tcpobex://", "irdaobex://", "file://", "urn:epc:id:",
	"urn:epc:tag:", "urn:epc:pat:", "urn:epc:raw:", "urn:epc:", "urn:nfc:",
}

func decodeURIPayload(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	prefix := ""
	if code := int(payload[0]); code < len(uriPrefixes) {
		prefix = uriPrefixes[code]
	}
	return prefix + string(payload[1:])
}
