package phone

import (
	"errors"
	"fmt"
	"time"

	"tagprint/internal/tag"
)

var ErrEmptyScan = errors.New("scan has no NDEF content")

// Scan is a tag read reported by a phone. Byte fields travel as base64.
type Scan struct {
	UID      string        `json:"uid"`
	Messages []ScanMessage `json:"messages,omitempty"`
	// NDEF is a raw NDEF message, used when Messages is empty.
	NDEF []byte `json:"ndef,omitempty"`
	// Text is a shortcut for a single text record.
	Text string `json:"text,omitempty"`
}

type ScanMessage struct {
	Records []ScanRecord `json:"records"`
}

type ScanRecord struct {
	TNF     uint8  `json:"tnf"`
	Type    []byte `json:"type,omitempty"`
	ID      []byte `json:"id,omitempty"`
	Payload []byte `json:"payload,omitempty"`
}

// Event converts the scan into a listener event.
func (s Scan) Event(source string) (*tag.Event, error) {
	ev := &tag.Event{Source: source, UID: s.UID, ScannedAt: time.Now()}

	switch {
	case len(s.Messages) > 0:
		for _, m := range s.Messages {
			msg := tag.Message{}
			for _, r := range m.Records {
				msg.Records = append(msg.Records, tag.Record{TNF: r.TNF, Type: r.Type, ID: r.ID, Payload: r.Payload})
			}
			ev.Messages = append(ev.Messages, msg)
		}
	case len(s.NDEF) > 0:
		records, err := tag.ParseMessage(s.NDEF)
		if err != nil {
			return nil, fmt.Errorf("parse ndef: %w", err)
		}
		ev.Messages = []tag.Message{{Records: records}}
	case s.Text != "":
		ev.Messages = []tag.Message{{Records: []tag.Record{tag.NewTextRecord(s.Text, "en")}}}
	default:
		return nil, ErrEmptyScan
	}
	return ev, nil
}
