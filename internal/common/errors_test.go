package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialWriteError_NamesCIDAndUnwraps(t *testing.T) {
	err := error(&PartialWriteError{CID: "Qm123", Err: fmt.Errorf("wait: %w", ErrTransactionTimeout)})

	assert.Contains(t, err.Error(), "Qm123")
	assert.ErrorIs(t, err, ErrTransactionTimeout)

	var pw *PartialWriteError
	require.True(t, errors.As(fmt.Errorf("create: %w", err), &pw))
	assert.Equal(t, "Qm123", pw.CID)
}

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrUnauthorized, ErrDecryption, ErrSubmission,
		ErrTransactionFailed, ErrTransactionTimeout, ErrConflict,
		ErrValidation, ErrCorrupt, ErrInternal, ErrInvalidToken, ErrTokenExpired,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v must not match %v", a, b)
			}
		}
	}
}
