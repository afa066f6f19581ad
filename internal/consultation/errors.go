package consultation

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindDependency ErrorKind = "dependency"
	KindParse      ErrorKind = "parse"
	KindState      ErrorKind = "state"
)

// ConsultationError wraps any failure of an engine operation. The state
// passed to the failing call remains valid and unchanged.
type ConsultationError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *ConsultationError) Error() string {
	return fmt.Sprintf("consultation %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *ConsultationError) Unwrap() error { return e.Err }

var (
	ErrNoDiet           = errors.New("no diet preview or generated diet to finalize")
	ErrNotFound         = errors.New("consultation not found")
	ErrEmptyReply       = errors.New("empty user reply")
	ErrReplyTooLong     = fmt.Errorf("user reply longer than %d characters", maxReplyRunes)
	ErrConsultationDone = errors.New("consultation already finalized")
)

func newError(op string, kind ErrorKind, err error) error {
	return &ConsultationError{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of a ConsultationError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var ce *ConsultationError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
