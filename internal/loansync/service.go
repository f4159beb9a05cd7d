// Package loansync pushes approved applications into the external
// loan-management system: client registration, loan-application registration
// and document upload, strictly in that order. Steps are independently
// retryable but never transactional across each other.
package loansync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"peakcredit/origination-backend/internal/documents"
	"peakcredit/origination-backend/internal/storage"
	"peakcredit/origination-backend/internal/vendors"
	"peakcredit/origination-backend/internal/vendors/loansys"
)

const uploadParallelism = 4

// Service drives the three-step synchronization flow.
type Service struct {
	client   *loansys.Client
	refs     Repository
	docs     documents.Repository
	store    storage.ObjectStore
	mapper   *Mapper
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a new loan-system synchronizer
func NewService(
	client *loansys.Client,
	refs Repository,
	docs documents.Repository,
	store storage.ObjectStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		client:   client,
		refs:     refs,
		docs:     docs,
		store:    store,
		mapper:   NewMapper(logger),
		validate: validator.New(),
		logger:   logger,
	}
}

// clientPayload is the strict schema for client_create.
type clientPayload struct {
	FirstName   string `json:"client_firstname" validate:"required"`
	Surname     string `json:"client_surname" validate:"required"`
	IDNumber    string `json:"client_id_no" validate:"required,len=13,numeric"`
	GenderCode  int    `json:"client_gender_code" validate:"required,gte=1"`
	IDTypeCode  int    `json:"client_id_type_code" validate:"required,gte=1"`
	DateOfBirth string `json:"client_dob" validate:"required"`
	Cellphone   string `json:"client_cell" validate:"required"`
	Address     string `json:"client_address"`
}

// loanPayload is the strict schema for create_loan_application.
type loanPayload struct {
	ClientNo         string `json:"client_no" validate:"required"`
	Principal        string `json:"loan_amount" validate:"required"`
	TermDays         int    `json:"loan_term_days" validate:"required,gt=0"`
	InterestRate     string `json:"interest_rate" validate:"required"`
	FirstPaymentDate string `json:"first_payment_date" validate:"required"`
}

// RegisterClient runs step one: map domain enums to vendor codes, validate
// the assembled payload and create the client. A successful call stores the
// vendor's client number against the application.
func (s *Service) RegisterClient(ctx context.Context, in ClientCreateInput) (*loansys.Response, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, localValidationError(err)
	}

	payload := clientPayload{
		FirstName:   in.FirstName,
		Surname:     in.Surname,
		IDNumber:    in.IDNumber,
		GenderCode:  s.mapper.GenderCode(in.Gender),
		IDTypeCode:  s.mapper.IDTypeCode(in.IDType),
		DateOfBirth: in.DateOfBirth,
		Cellphone:   in.CellphoneNumber,
		Address:     in.Address,
	}
	if err := s.validate.Struct(payload); err != nil {
		return nil, localValidationError(err)
	}

	fields, err := toFields(payload)
	if err != nil {
		return nil, err
	}

	resp, _, err := s.client.CreateClient(ctx, fields)
	if err != nil {
		return nil, err
	}

	if resp.ReturnCode != 0 {
		if len(resp.ValidationErrors) > 0 {
			return resp, &vendors.ValidationError{Vendor: loansys.Name, Fields: resp.ValidationErrors}
		}
		return resp, fmt.Errorf("loan system rejected client registration: %s", resp.ReturnReason)
	}

	ref := &ClientReference{
		ID:             uuid.New(),
		ApplicationID:  in.ApplicationID,
		VendorClientNo: resp.ClientNo,
	}
	if err := s.refs.SaveClientReference(ctx, ref); err != nil {
		// The vendor-side client exists; losing the cross-reference would
		// strand the later steps.
		return resp, fmt.Errorf("client registered but reference not stored: %w", err)
	}

	s.logger.Info("client registered with loan system",
		zap.String("application_id", in.ApplicationID.String()),
		zap.String("client_no", resp.ClientNo))
	return resp, nil
}

// LoanApplicationResult carries the vendor's answer for step two. When the
// response fails local schema validation the raw body is still handed back:
// the vendor may have succeeded despite the mismatch.
type LoanApplicationResult struct {
	Response       *loansys.Response `json:"response"`
	Raw            json.RawMessage   `json:"raw,omitempty"`
	SchemaMismatch bool              `json:"schema_mismatch,omitempty"`
}

// RegisterLoanApplication runs step two. Input validation failures return
// before any network call.
func (s *Service) RegisterLoanApplication(ctx context.Context, in LoanApplicationInput) (*LoanApplicationResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, localValidationError(err)
	}

	ref, err := s.refs.GetByApplication(ctx, in.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("application %s has no registered client: %w", in.ApplicationID, err)
	}

	payload := loanPayload{
		ClientNo:         ref.VendorClientNo,
		Principal:        in.Principal,
		TermDays:         in.TermDays,
		InterestRate:     in.InterestRate,
		FirstPaymentDate: in.FirstPaymentDate,
	}
	if err := s.validate.Struct(payload); err != nil {
		return nil, localValidationError(err)
	}

	fields, err := toFields(payload)
	if err != nil {
		return nil, err
	}

	resp, raw, err := s.client.CreateLoanApplication(ctx, fields)
	if err != nil {
		return nil, err
	}

	result := &LoanApplicationResult{Response: resp, Raw: raw}

	if resp.ReturnCode != 0 {
		if len(resp.ValidationErrors) > 0 {
			return result, &vendors.ValidationError{Vendor: loansys.Name, Fields: resp.ValidationErrors}
		}
		return result, fmt.Errorf("loan system rejected loan application: %s", resp.ReturnReason)
	}

	if resp.LoanNo == "" {
		// Local schema says a successful answer carries loan_no; keep the raw
		// response for the caller instead of discarding it.
		s.logger.Warn("loan application response failed schema validation",
			zap.String("application_id", in.ApplicationID.String()))
		result.SchemaMismatch = true
	}
	return result, nil
}

// UploadDocuments runs step three: every stored document row for the
// application is downloaded, mapped to the vendor's file-type code and
// uploaded. Per-document independence: one failure never blocks the rest.
func (s *Service) UploadDocuments(ctx context.Context, applicationID uuid.UUID) (*UploadSummary, error) {
	ref, err := s.refs.GetByApplication(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("application %s has no registered client: %w", applicationID, err)
	}

	docs, err := s.docs.ListForApplication(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	summary := &UploadSummary{
		TotalDocuments: len(docs),
		Results:        make([]UploadResult, len(docs)),
	}

	var g errgroup.Group
	g.SetLimit(uploadParallelism)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			summary.Results[i] = s.uploadOne(ctx, ref.VendorClientNo, doc)
			return nil
		})
	}
	_ = g.Wait()

	for _, result := range summary.Results {
		if result.Success {
			summary.SuccessfulUploads++
		}
	}

	s.logger.Info("document upload finished",
		zap.String("application_id", applicationID.String()),
		zap.Int("total", summary.TotalDocuments),
		zap.Int("successful", summary.SuccessfulUploads))
	return summary, nil
}

func (s *Service) uploadOne(ctx context.Context, clientNo string, doc documents.Document) UploadResult {
	result := UploadResult{DocumentID: doc.ID, FileName: doc.FileName}

	body, err := s.store.Download(ctx, doc.StorageKey)
	if err != nil {
		result.Error = fmt.Sprintf("download failed: %v", err)
		return result
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		result.Error = fmt.Sprintf("download failed: %v", err)
		return result
	}

	resp, err := s.client.UploadFile(ctx, loansys.FileUploadRequest{
		ClientNo:     clientNo,
		FileTypeCode: s.mapper.DocumentFileType(doc.DocumentType),
		FileName:     doc.FileName,
		Content:      content,
	})
	if err != nil {
		result.Error = fmt.Sprintf("upload failed: %v", err)
		return result
	}
	if resp.ReturnCode != 0 {
		result.Error = fmt.Sprintf("upload rejected: %s", resp.ReturnReason)
		return result
	}

	result.Success = true
	return result
}

// localValidationError converts validator errors to the shared typed error
// so handlers answer with one message per offending field.
func localValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return &vendors.ValidationError{Vendor: loansys.Name, Fields: fields}
}

// toFields flattens a payload struct to the map the client posts.
func toFields(payload interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten payload: %w", err)
	}
	return fields, nil
}
