package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/ankunda/payflow/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Unwrap(t *testing.T) {
	err := errors.NewDomainError("invalid_transition", "cannot transition from FAILED to SUCCESS", errors.ErrInvalidStateTransition)
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
	assert.Contains(t, err.Error(), "FAILED to SUCCESS")
}

func TestDomainError_NoWrapped(t *testing.T) {
	err := errors.NewDomainError("not_found", "currency \"XYZ\" not found", errors.ErrCurrencyNotFound)
	assert.ErrorIs(t, err, errors.ErrCurrencyNotFound)

	bare := errors.NewDomainError("oops", "something happened", nil)
	assert.Equal(t, "something happened", bare.Error())
}

func TestValidationError(t *testing.T) {
	err := errors.NewValidationError("amount", "must be greater than 0")
	assert.Contains(t, err.Error(), "amount")

	var ve *errors.ValidationError
	require.True(t, stderrors.As(err, &ve))
	assert.Equal(t, "amount", ve.Field)
}
