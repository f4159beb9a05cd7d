package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, check *VerificationCheck) error {
	args := m.Called(ctx, check)
	return args.Error(0)
}

func (m *mockRepository) ListForProfile(ctx context.Context, profileID uuid.UUID) ([]VerificationCheck, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]VerificationCheck), args.Error(1)
}

func TestRecorderReturnsRowID(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*audit.VerificationCheck")).Return(nil)

	recorder := NewRecorder(repo, zap.NewNop())
	id := recorder.Record(context.Background(), Entry{
		CheckType: CheckIDVerification,
		Vendor:    "verifid",
		Status:    StatusPassed,
		Payload:   map[string]string{"verified": "true"},
	})

	assert.NotEqual(t, uuid.Nil, id)
	repo.AssertExpectations(t)
}

func TestRecorderSwallowsPersistFailure(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	recorder := NewRecorder(repo, zap.NewNop())
	id := recorder.Record(context.Background(), Entry{
		CheckType: CheckCreditBureau,
		Vendor:    "compuscore",
		Status:    StatusFailed,
	})

	assert.Equal(t, uuid.Nil, id)
}

func TestRecorderHandlesUnserializablePayload(t *testing.T) {
	repo := new(mockRepository)
	var captured *VerificationCheck
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*VerificationCheck)
	}).Return(nil)

	recorder := NewRecorder(repo, zap.NewNop())
	id := recorder.Record(context.Background(), Entry{
		CheckType: CheckFraud,
		Vendor:    "tracescan",
		Status:    StatusFailed,
		Payload:   make(chan int),
	})

	assert.NotEqual(t, uuid.Nil, id)
	require.NotNil(t, captured)
	assert.JSONEq(t, `{"error":"unserializable payload"}`, string(captured.ResponsePayload))
}
