package loansync

import (
	"strings"

	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/documents"
)

// The loan-management system speaks numeric codes. The lookup tables live
// here as data; every fallback to a default code is a logged decision, not a
// silent one.

var genderCodes = map[string]int{
	"male":   1,
	"female": 2,
}

const genderCodeFallback = 3 // "unspecified"

var idTypeCodes = map[string]int{
	"sa_id":    1,
	"passport": 2,
	"asylum":   3,
}

const idTypeCodeFallback = 1 // domestic ID book/card

var documentFileTypes = map[documents.DocumentType]string{
	documents.TypeIDDocument:    "1",
	documents.TypePayslip:       "2",
	documents.TypeBankStatement: "34",
}

const documentFileTypeFallback = "33" // "Other"

// Mapper translates domain enums to the vendor's numeric codes.
type Mapper struct {
	logger *zap.Logger
}

// NewMapper creates a new code mapper
func NewMapper(logger *zap.Logger) *Mapper {
	return &Mapper{logger: logger}
}

// GenderCode maps a textual gender to the vendor code.
func (m *Mapper) GenderCode(gender string) int {
	if code, ok := genderCodes[strings.ToLower(strings.TrimSpace(gender))]; ok {
		return code
	}
	m.logger.Warn("unrecognized gender, using fallback code",
		zap.String("gender", gender),
		zap.Int("fallback", genderCodeFallback))
	return genderCodeFallback
}

// IDTypeCode maps a textual ID type to the vendor code.
func (m *Mapper) IDTypeCode(idType string) int {
	if code, ok := idTypeCodes[strings.ToLower(strings.TrimSpace(idType))]; ok {
		return code
	}
	m.logger.Warn("unrecognized id type, using fallback code",
		zap.String("id_type", idType),
		zap.Int("fallback", idTypeCodeFallback))
	return idTypeCodeFallback
}

// DocumentFileType maps the local document taxonomy to the vendor's numeric
// file-type code.
func (m *Mapper) DocumentFileType(docType documents.DocumentType) string {
	if code, ok := documentFileTypes[docType]; ok {
		return code
	}
	m.logger.Warn("unrecognized document type, uploading as Other",
		zap.String("document_type", string(docType)),
		zap.String("fallback", documentFileTypeFallback))
	return documentFileTypeFallback
}
