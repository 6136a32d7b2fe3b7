package service

import (
	"context"
	"database/sql"

	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/platform/paystack"
	"github.com/phrazzld/cardsmith/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockFlashcardStore mocks the store.FlashcardStore interface
type MockFlashcardStore struct {
	mock.Mock
}

func (m *MockFlashcardStore) Save(ctx context.Context, userID string, batch domain.FlashcardBatch) (int, error) {
	args := m.Called(ctx, userID, batch)
	return args.Int(0), args.Error(1)
}

func (m *MockFlashcardStore) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Flashcard, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Flashcard), args.Error(1)
}

// MockEntitlementStore mocks the store.EntitlementStore interface
type MockEntitlementStore struct {
	mock.Mock
}

func (m *MockEntitlementStore) Grant(ctx context.Context, e *domain.Entitlement) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEntitlementStore) HasPremium(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntitlementStore) WithTx(*sql.Tx) store.EntitlementStore {
	return m
}

// MockPaymentGateway mocks the PaymentGateway interface
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Initialize(
	ctx context.Context,
	req paystack.InitializeRequest,
) (*paystack.Initialization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.Initialization), args.Error(1)
}

func (m *MockPaymentGateway) Verify(ctx context.Context, reference string) (*paystack.Verification, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.Verification), args.Error(1)
}

func (m *MockPaymentGateway) ParseEvent(body []byte, signature string) (*paystack.Event, error) {
	args := m.Called(body, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.Event), args.Error(1)
}
