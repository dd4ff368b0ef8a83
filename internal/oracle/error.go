package oracle

import (
	"errors"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// Error is returned by Client.Score. Kind is domain.ErrOracleUnavailable or
// domain.ErrOracleMalformed, so callers can match it with errors.Is.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func unavailable(msg string, err error) *Error {
	return &Error{Kind: domain.ErrOracleUnavailable, Msg: msg, Err: err}
}

func malformed(msg string, err error) *Error {
	return &Error{Kind: domain.ErrOracleMalformed, Msg: msg, Err: err}
}

func IsUnavailable(err error) bool {
	var target *Error
	return errors.As(err, &target) && target.Kind == domain.ErrOracleUnavailable
}

func IsMalformed(err error) bool {
	var target *Error
	return errors.As(err, &target) && target.Kind == domain.ErrOracleMalformed
}
