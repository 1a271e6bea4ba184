// Package pairing remembers the printer a tag pointed at and runs print jobs
// against it. Every operation opens a fresh connection and closes it before
// returning.
package pairing

import (
	"errors"
	"fmt"
)

// Outcome classifies how an operation ended.
type Outcome int

const (
	Success Outcome = iota
	ConnectionFailed
	WriteFailed
	ContentUnavailable
	NotPaired
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case ConnectionFailed:
		return "connection failed"
	case WriteFailed:
		return "write failed"
	case ContentUnavailable:
		return "content unavailable"
	case NotPaired:
		return "not paired"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

var (
	ErrNotPaired          = errors.New("no printer paired")
	ErrContentUnavailable = errors.New("print content unavailable")
)

// Result reports a finished probe or print.
type Result struct {
	Op      string // "probe" or "print"
	Outcome Outcome
	Address string
	OpID    string
	Err     error
}

func (r Result) OK() bool {
	return r.Outcome == Success
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", r.Op, r.Address, r.Outcome, r.Err)
	}
	return fmt.Sprintf("%s %s: %s", r.Op, r.Address, r.Outcome)
}
