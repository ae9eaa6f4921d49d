// Package multierr collects errors of components that are closed or
// stopped together.
package multierr

import "strings"

// Errors wraps errors that might occur when multiple components are
// failing.
type Errors []error

func (e Errors) Error() string {
	s := make([]string, 0, len(e))
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Unwrap allows errors.Is and errors.As to inspect every error.
func (e Errors) Unwrap() []error {
	return e
}

// Add appends non-nil error to the list.
func (e *Errors) Add(err error) {
	if err != nil {
		*e = append(*e, err)
	}
}

// Ret returns untyped nil if error list is empty.
func (e Errors) Ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
