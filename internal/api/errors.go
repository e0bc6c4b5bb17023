package api

import (
	"errors"
	"fmt"
)

// Kind separates the two request failure classes the pages react to.
type Kind int

const (
	// KindTransport covers network errors and responses that are not a
	// readable JSON envelope.
	KindTransport Kind = iota
	// KindRejected is a well-formed response with success:false.
	KindRejected
)

func (k Kind) String() string {
	if k == KindRejected {
		return "rejected"
	}
	return "transport"
}

var errNotJSON = errors.New("response is not JSON")

type Error struct {
	Kind    Kind
	Op      string // e.g. "GET /api/user"
	Status  int    // 0 when no response arrived
	Message string // server-supplied error text, verbatim
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindRejected && e.Message != "":
		return fmt.Sprintf("%s: rejected (%d): %s", e.Op, e.Status, e.Message)
	case e.Kind == KindRejected:
		return fmt.Sprintf("%s: rejected (%d)", e.Op, e.Status)
	case e.Status != 0:
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Err, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRejected reports whether err is an unsuccessful but well-formed response.
func IsRejected(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRejected
}

// Message returns the server's message for a rejected request and fallback
// for everything else, including a rejection without text.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRejected && e.Message != "" {
		return e.Message
	}
	return fallback
}
