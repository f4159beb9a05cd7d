package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/audit"
	"peakcredit/origination-backend/internal/pii"
	"peakcredit/origination-backend/internal/vendors/bureau"
	"peakcredit/origination-backend/internal/vendors/fraud"
	"peakcredit/origination-backend/internal/vendors/identity"
)

const testIDNumber = "9001015009087"

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Create(ctx context.Context, check *audit.VerificationCheck) error {
	args := m.Called(ctx, check)
	return args.Error(0)
}

func (m *mockAuditRepo) ListForProfile(ctx context.Context, profileID uuid.UUID) ([]audit.VerificationCheck, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.VerificationCheck), args.Error(1)
}

type mockProfileWriter struct {
	mock.Mock
}

func (m *mockProfileWriter) SetEncryptedID(ctx context.Context, id uuid.UUID, encrypted string) error {
	args := m.Called(ctx, id, encrypted)
	return args.Error(0)
}

type mockOTVRepo struct {
	mock.Mock
}

func (m *mockOTVRepo) Create(ctx context.Context, session *OneTimeVerificationSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockOTVRepo) LatestForApplication(ctx context.Context, applicationID uuid.UUID) (*OneTimeVerificationSession, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OneTimeVerificationSession), args.Error(1)
}

type mockSMSSender struct {
	mock.Mock
}

func (m *mockSMSSender) Send(ctx context.Context, to, message string) error {
	args := m.Called(ctx, to, message)
	return args.Error(0)
}

// newIdentityStub serves the vendor login plus per-path envelope answers.
func newIdentityStub(t *testing.T, answers map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/otv/token/v1/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":{"token":"test-token"}}`))
	})
	for path, body := range answers {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			w.Write([]byte(body))
		})
	}
	return httptest.NewServer(mux)
}

// newBureauStub answers score and debt review enquiries with the given outer
// response.
func newBureauStub(t *testing.T, answers map[string]bureau.ScoreResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for endpoint, answer := range answers {
			if strings.Contains(r.URL.Path, "/3.0/"+endpoint+"/") {
				json.NewEncoder(w).Encode(answer)
				return
			}
		}
		http.NotFound(w, r)
	}))
}

type serviceFixture struct {
	service  *Service
	codec    *pii.Codec
	auditor  *mockAuditRepo
	profiles *mockProfileWriter
	otvRepo  *mockOTVRepo
	sms      *mockSMSSender
}

func newServiceFixture(t *testing.T, identityURL, bureauURL string) *serviceFixture {
	t.Helper()
	logger := zap.NewNop()
	codec := pii.NewCodec("test-secret")

	auditor := new(mockAuditRepo)
	profiles := new(mockProfileWriter)
	otvRepo := new(mockOTVRepo)
	smsSender := new(mockSMSSender)

	svc := NewService(
		identity.NewClient(identityURL, "login-id", "user", "pass", logger),
		bureau.NewClient(bureauURL, "user", "pass", "origin", logger),
		fraud.NewClient(identityURL, "user", "pass", logger),
		codec,
		audit.NewRecorder(auditor, logger),
		profiles,
		otvRepo,
		smsSender,
		"https://verify.example.com",
		logger,
	)
	return &serviceFixture{service: svc, codec: codec, auditor: auditor, profiles: profiles, otvRepo: otvRepo, sms: smsSender}
}

func scoreBody(t *testing.T, score int) bureau.ScoreResponse {
	t.Helper()
	inner, err := json.Marshal(map[string]interface{}{
		"idNumber": testIDNumber,
		"results":  []map[string]interface{}{{"resultType": "score", "score": score}},
	})
	require.NoError(t, err)
	return bureau.ScoreResponse{TransactionCompleted: true, ReturnData: string(inner)}
}

func TestCreditBand(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{750, "Excellent"},
		{749, "Good"},
		{700, "Good"},
		{699, "Fair"},
		{650, "Fair"},
		{649, "Poor"},
		{600, "Poor"},
		{599, "Very Poor"},
		{0, "Very Poor"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CreditBand(tt.score), "score %d", tt.score)
	}
}

func TestCreditScorePassWritesEncryptedIDBack(t *testing.T) {
	server := newBureauStub(t, map[string]bureau.ScoreResponse{"Json": scoreBody(t, 700)})
	defer server.Close()

	f := newServiceFixture(t, "http://unused.invalid", server.URL)
	f.auditor.On("Create", mock.Anything, mock.Anything).Return(nil)

	profileID := uuid.New()
	f.profiles.On("SetEncryptedID", mock.Anything, profileID, mock.MatchedBy(func(encrypted string) bool {
		plain, err := f.codec.Decrypt(encrypted)
		return err == nil && plain == testIDNumber
	})).Return(nil)

	result := f.service.CreditScore(context.Background(), CreditScoreInput{IDNumber: testIDNumber, ProfileID: &profileID})

	assert.True(t, result.Passed)
	assert.Contains(t, result.Detail, "Good")
	f.profiles.AssertExpectations(t)
}

func TestCreditScoreBelowMinimumIsRejected(t *testing.T) {
	server := newBureauStub(t, map[string]bureau.ScoreResponse{"Json": scoreBody(t, 599)})
	defer server.Close()

	f := newServiceFixture(t, "http://unused.invalid", server.URL)
	f.auditor.On("Create", mock.Anything, mock.Anything).Return(nil)

	result := f.service.CreditScore(context.Background(), CreditScoreInput{IDNumber: testIDNumber})

	assert.False(t, result.Passed)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailRejected, result.Failure.Kind)
	assert.Contains(t, result.Failure.Message, "Very Poor")
	f.profiles.AssertNotCalled(t, "SetEncryptedID", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreditScoreThinFileIsRejected(t *testing.T) {
	inner, _ := json.Marshal(map[string]interface{}{"idNumber": testIDNumber, "results": []interface{}{}})
	server := newBureauStub(t, map[string]bureau.ScoreResponse{
		"Json": {TransactionCompleted: true, ReturnData: string(inner)},
	})
	defer server.Close()

	f := newServiceFixture(t, "http://unused.invalid", server.URL)
	f.auditor.On("Create", mock.Anything, mock.Anything).Return(nil)

	result := f.service.CreditScore(context.Background(), CreditScoreInput{IDNumber: testIDNumber})

	assert.False(t, result.Passed)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailRejected, result.Failure.Kind)
	assert.Contains(t, result.Failure.Message, "thin file")
}

func TestDebtReviewFlaggedIsRejected(t *testing.T) {
	inner, _ := json.Marshal(map[string]interface{}{"idNumber": testIDNumber, "underDebtReview": true})
	server := newBureauStub(t, map[string]bureau.ScoreResponse{
		"DebtReview": {TransactionCompleted: true, ReturnData: string(inner)},
	})
	defer server.Close()

	f := newServiceFixture(t, "http://unused.invalid", server.URL)
	f.auditor.On("Create", mock.Anything, mock.Anything).Return(nil)

	result := f.service.DebtReview(context.Background(), DebtReviewInput{IDNumber: testIDNumber})

	assert.False(t, result.Passed)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailRejected, result.Failure.Kind)
}

func TestIdentityVerificationPasses(t *testing.T) {
	server := newIdentityStub(t, map[string]string{
		"/otv/enquiry/v1/demographic": `{"code":0,"detail":{"verified":true,"firstName":"Thabo","surname":"Nkosi"}}`,
	})
	defer server.Close()

	f := newServiceFixture(t, server.URL, "http://unused.invalid")
	f.auditor.On("Create", mock.Anything, mock.Anything).Return(nil)

	encrypted, err := f.codec.Encrypt(testIDNumber)
	require.NoError(t, err)

	result := f.service.IdentityVerification(context.Background(), IdentityInput{EncryptedIDNumber: encrypted})

	assert.True(t, result.Passed)
	assert.Contains(t, result.Detail, "Thabo")
}

func TestIdentityVerificationUndecryptableSubjectFailsFast(t *testing.T) {
	server := newIdentityStub(t, map[string]string{})
	defer server.Close()

	f := newServiceFixture(t, server.URL, "http://unused.invalid")
	var captured *audit.VerificationCheck
	f.auditor.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*audit.VerificationCheck)
	}).Return(nil)

	result := f.service.IdentityVerification(context.Background(), IdentityInput{EncryptedIDNumber: "not-encrypted"})

	assert.False(t, result.Passed)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailDecryption, result.Failure.Kind)
	require.NotNil(t, captured)
	// The audit row keeps the original stored value, not a re-encryption.
	assert.Equal(t, "not-encrypted", captured.IDNumberEncrypted)
}

func TestDeceasedStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		passed bool
		kind   FailureKind
	}{
		{
			name:   "alive",
			body:   `{"code":0,"detail":{"deceased":false}}`,
			passed: true,
		},
		{
			name: "deceased",
			body: `{"code":0,"detail":{"deceased":true,"dateOfDeath":"2024-01-01"}}`,
			kind: FailRejected,
		},
		{
			name: "register unavailable",
			body: `{"code":10084,"message":"service unavailable"}`,
			kind: FailUnavailable,
		},
		{
			name: "other vendor code",
			body: `{"code":42,"message":"enquiry rejected"}`,
			kind: FailRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newIdentityStub(t, map[string]string{"/otv/enquiry/v1/deceased": tt.body})
			defer server.Close()

			f := newServiceFixture(t, server.URL, "http://unused.invalid")
			f.auditor.On("Create", mock.Anything, mock.Anything).Return(nil)

			result := f.service.DeceasedStatus(context.Background(), DeceasedInput{IDNumber: testIDNumber})

			assert.Equal(t, tt.passed, result.Passed)
			if !tt.passed {
				require.NotNil(t, result.Failure)
				assert.Equal(t, tt.kind, result.Failure.Kind)
			}
		})
	}
}

func TestBankAccountVerificationSplitsNames(t *testing.T) {
	var received map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/otv/token/v1/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":{"token":"test-token"}}`))
	})
	mux.HandleFunc("/otv/enquiry/v1/bureau-avs", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"code":0,"detail":{"accountExists":true,"accountOpen":true,"idNumberMatch":true}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newServiceFixture(t, server.URL, "http://unused.invalid")
	f.auditor.On("Create", mock.Anything, mock.Anything).Return(nil)

	result := f.service.BankAccountVerification(context.Background(), BankAccountInput{
		IDNumber:      testIDNumber,
		AccountNumber: "123456789",
		BranchCode:    "250655",
		AccountType:   "cheque",
		BankName:      "First National Bank",
		FullName:      "Thabo van der Merwe",
	})

	assert.True(t, result.Passed)
	require.NotNil(t, received)
	assert.Equal(t, "Thabo", received["firstName"])
	assert.Equal(t, "van der Merwe", received["surname"])
	assert.Equal(t, "First", received["bank"])
}

func TestCellphoneMatchConfidenceBands(t *testing.T) {
	assert.Equal(t, "High", ConfidenceBand(80))
	assert.Equal(t, "Medium", ConfidenceBand(79))
	assert.Equal(t, "Medium", ConfidenceBand(50))
	assert.Equal(t, "Low", ConfidenceBand(49))
}

func TestOTVRequestWithoutPhoneIsPreconditionFailure(t *testing.T) {
	f := newServiceFixture(t, "http://unused.invalid", "http://unused.invalid")

	result := f.service.RequestOneTimeVerification(context.Background(), OTVRequestInput{
		ApplicationID: uuid.New(),
		IDNumber:      testIDNumber,
	})

	assert.False(t, result.Passed)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailPrecondition, result.Failure.Kind)
	// No vendor attempt was made, so nothing lands in the audit trail.
	f.auditor.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOTVRequestSendsLinkAndAuditsPending(t *testing.T) {
	server := newIdentityStub(t, map[string]string{
		"/otv/pin/v1/request": `{"code":0,"detail":{"pin":"4821","referenceId":"ref-77"}}`,
	})
	defer server.Close()

	f := newServiceFixture(t, server.URL, "http://unused.invalid")

	var captured *audit.VerificationCheck
	f.auditor.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*audit.VerificationCheck)
	}).Return(nil)

	applicationID := uuid.New()
	f.otvRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *OneTimeVerificationSession) bool {
		return s.ApplicationID == applicationID && s.Pin == "4821"
	})).Return(nil)
	f.sms.On("Send", mock.Anything, "+27821234567", mock.MatchedBy(func(message string) bool {
		return strings.Contains(message, "https://verify.example.com/verify/ref-77") &&
			strings.Contains(message, "4821")
	})).Return(nil)

	result := f.service.RequestOneTimeVerification(context.Background(), OTVRequestInput{
		ApplicationID:   applicationID,
		IDNumber:        testIDNumber,
		CellphoneNumber: "0821234567",
	})

	assert.True(t, result.Passed)
	f.otvRepo.AssertExpectations(t)
	f.sms.AssertExpectations(t)
	require.NotNil(t, captured)
	assert.Equal(t, audit.StatusPending, captured.Status)
}

func TestOTVResultsWithoutSessionIsPreconditionFailure(t *testing.T) {
	f := newServiceFixture(t, "http://unused.invalid", "http://unused.invalid")
	applicationID := uuid.New()
	f.otvRepo.On("LatestForApplication", mock.Anything, applicationID).Return(nil, assert.AnError)

	result := f.service.OneTimeVerificationResults(context.Background(), applicationID, nil)

	assert.False(t, result.Passed)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailPrecondition, result.Failure.Kind)
}

func TestOTVResultsVerified(t *testing.T) {
	server := newIdentityStub(t, map[string]string{
		"/otv/pin/v1/results": `{"code":0,"detail":{"status":"VERIFIED","matchScore":93}}`,
	})
	defer server.Close()

	f := newServiceFixture(t, server.URL, "http://unused.invalid")
	f.auditor.On("Create", mock.Anything, mock.Anything).Return(nil)

	applicationID := uuid.New()
	f.otvRepo.On("LatestForApplication", mock.Anything, applicationID).Return(&OneTimeVerificationSession{
		ApplicationID: applicationID,
		Pin:           "4821",
		IDNumber:      testIDNumber,
	}, nil)

	result := f.service.OneTimeVerificationResults(context.Background(), applicationID, nil)

	assert.True(t, result.Passed)
	assert.Contains(t, result.Detail, "93")
}

func TestSplitFullName(t *testing.T) {
	first, surname := splitFullName("Thabo Nkosi")
	assert.Equal(t, "Thabo", first)
	assert.Equal(t, "Nkosi", surname)

	first, surname = splitFullName("Thabo")
	assert.Equal(t, "Thabo", first)
	assert.Equal(t, "", surname)

	first, surname = splitFullName("")
	assert.Equal(t, "", first)
	assert.Equal(t, "", surname)
}
