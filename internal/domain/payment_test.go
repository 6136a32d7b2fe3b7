package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	t.Parallel()

	t.Run("creates pending payment", func(t *testing.T) {
		p, err := NewPayment("ref-1", "user-1", "a@example.com", 500, "NGN")
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPending, p.Status)
		assert.Nil(t, p.VerifiedAt)
		assert.False(t, p.CreatedAt.IsZero())
	})

	t.Run("rejects invalid data", func(t *testing.T) {
		_, err := NewPayment("", "user-1", "a@example.com", 500, "")
		assert.Equal(t, ErrPaymentReferenceEmpty, err)

		_, err = NewPayment("ref-1", "", "a@example.com", 500, "")
		assert.Equal(t, ErrPaymentUserIDEmpty, err)

		_, err = NewPayment("ref-1", "user-1", "a@example.com", 0, "")
		assert.Equal(t, ErrPaymentAmountInvalid, err)
	})
}

func TestPaymentStatus_IsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, PaymentStatusPending.IsValid())
	assert.True(t, PaymentStatusSuccess.IsValid())
	assert.True(t, PaymentStatusFailed.IsValid())
	assert.False(t, PaymentStatus("refunded").IsValid())
}
