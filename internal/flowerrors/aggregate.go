package flowerrors

import (
	"github.com/hashicorp/go-multierror"
)

// Aggregate collects validation failures from a multi-field check so a
// single bad request reports every violation instead of only the first one,
// grounded on the accumulate-then-return pattern consul's structs package
// uses around multierror.Append.
type Aggregate struct {
	path string
	err  *multierror.Error
}

// NewAggregate starts an empty aggregate. path, if non-empty, is prefixed to
// every violation added through Add.
func NewAggregate(path string) *Aggregate {
	return &Aggregate{path: path}
}

// Add records a validation violation if the condition is false.
func (a *Aggregate) Add(ok bool, format string, args ...any) {
	if ok {
		return
	}
	a.err = multierror.Append(a.err, Validation(a.path, format, args...))
}

// AddError records err directly if it is non-nil.
func (a *Aggregate) AddError(err error) {
	if err == nil {
		return
	}
	a.err = multierror.Append(a.err, err)
}

// Err returns nil if no violations were recorded, and the violation itself,
// unwrapped, if exactly one was. For two or more it returns a single
// ValidationError *Error wrapping all of them; individual violations remain
// inspectable via errors.As against the wrapped multierror.
func (a *Aggregate) Err() error {
	if a.err == nil || len(a.err.Errors) == 0 {
		return nil
	}
	if len(a.err.Errors) == 1 {
		return a.err.Errors[0]
	}
	combined := newError(ValidationError, a.path, "%d validation errors occurred", len(a.err.Errors))
	combined.cause = a.err.ErrorOrNil()
	return combined
}
