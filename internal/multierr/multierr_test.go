package multierr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/render/internal/multierr"
)

func TestErrors(t *testing.T) {
	var errs multierr.Errors
	assert.Nil(t, errs.Ret())

	first, second := errors.New("first"), errors.New("second")
	errs.Add(nil)
	errs.Add(first)
	errs.Add(second)
	err := errs.Ret()
	assert.EqualError(t, err, "first,second")
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}
