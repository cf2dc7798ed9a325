package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies failures so callers can react without string matching.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAuth
	KindStore
	KindCompletion
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindStore:
		return "store"
	case KindCompletion:
		return "completion"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func AuthError(op string, err error) error {
	return &Error{Kind: KindAuth, Op: op, Err: err}
}

func StoreError(op string, err error) error {
	return &Error{Kind: KindStore, Op: op, Err: err}
}

func CompletionError(op string, err error) error {
	return &Error{Kind: KindCompletion, Op: op, Err: err}
}

// ValidationError is returned before any network call is made.
func ValidationError(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Err: errors.New(msg)}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
