package expression

import (
	"errors"
	"fmt"

	"github.com/bawdo/sqlexpr/binder"
)

// Error kinds. Every misuse of a builder or renderer panics with an *Error
// wrapping one of these, so callers can match with errors.Is once the panic
// has been recovered by Compile or a statement's ToSQL.
var (
	// ErrLogic reports a call made in the wrong order, such as Then without When.
	ErrLogic = errors.New("logic error")
	// ErrInvalidArgument reports a value of the wrong shape or type.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmptyValueList reports an IN or NOT IN comparison without values.
	ErrEmptyValueList = errors.New("empty value list")
	// ErrUnsupported reports input that has no SQL rendering.
	ErrUnsupported = errors.New("unsupported")
)

// Error is the panic value raised by expression builders and renderers.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return "sqlexpr: " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func raise(kind error, format string, args ...any) {
	panic(&Error{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// Recover converts a panicking *Error into an error stored in *err. Any other
// panic is re-raised. It must be called directly by a deferred statement:
//
//	defer expression.Recover(&err)
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*err = e
		return
	}
	panic(r)
}

// Compile renders e against b, returning misuse panics as errors.
func Compile(e Expression, b *binder.ValueBinder) (sql string, err error) {
	defer Recover(&err)
	return e.SQL(b), nil
}
