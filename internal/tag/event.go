// Package tag turns NFC scans into printer pairing requests.
package tag

import "time"

// Event is a single tag scan as reported by a source.
type Event struct {
	Source    string // "phone", "libnfc", ...
	UID       string
	ScannedAt time.Time
	Messages  []Message
}

// Payload returns the text of the first record of the first message.
func (e *Event) Payload() (string, bool) {
	if len(e.Messages) == 0 || len(e.Messages[0].Records) == 0 {
		return "", false
	}
	return e.Messages[0].Records[0].Text(), true
}
