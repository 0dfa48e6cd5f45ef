package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estatecore/pkg/domain"
)

// RecordValidationRule rejects writes carrying malformed payload fields.
// Its messages are user-safe: the store surfaces them verbatim as
// validation errors.
func RecordValidationRule() domain.Rule {
	return recordValidationRule{}
}

type recordValidationRule struct{}

func (recordValidationRule) Name() string { return "record_validation" }

func (recordValidationRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action == domain.ActionRemove {
			continue
		}
		switch change.Entity {
		case domain.EntityProductOwner:
			owner, ok := change.After.(domain.ProductOwner)
			if !ok {
				continue
			}
			res.Merge(validateOwner(owner))
		case domain.EntityLegalDocument:
			doc, ok := change.After.(domain.LegalDocument)
			if !ok {
				continue
			}
			res.Merge(validateDocument(doc))
		}
	}
	return res, nil
}

func validateOwner(owner domain.ProductOwner) domain.Result {
	res := domain.Result{}
	if email := strings.TrimSpace(owner.Email); email != "" && !strings.Contains(email, "@") {
		res.Violations = append(res.Violations, blockOwner(owner.ID, "Email address is not valid."))
	}
	if dob := strings.TrimSpace(owner.DateOfBirth); dob != "" {
		born, err := time.Parse("2006-01-02", dob)
		if err != nil {
			res.Violations = append(res.Violations, blockOwner(owner.ID, "Date of birth must be in YYYY-MM-DD format."))
		} else if born.After(time.Now()) {
			res.Violations = append(res.Violations, blockOwner(owner.ID, "Date of birth cannot be in the future."))
		}
	}
	return res
}

func validateDocument(doc domain.LegalDocument) domain.Result {
	res := domain.Result{}
	if strings.TrimSpace(doc.Type) == "" {
		res.Violations = append(res.Violations, blockDocument(doc.ID, "Document type is required."))
	}
	if date := strings.TrimSpace(doc.DocumentDate); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			res.Violations = append(res.Violations, blockDocument(doc.ID, "Document date must be in YYYY-MM-DD format."))
		}
	}
	if len(doc.OwnerNames) != 0 && len(doc.OwnerIDs) != len(doc.OwnerNames) {
		res.Violations = append(res.Violations, blockDocument(doc.ID, fmt.Sprintf("Document lists %d owner ids but %d owner names.", len(doc.OwnerIDs), len(doc.OwnerNames))))
	}
	return res
}

func blockOwner(id, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "record_validation",
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   domain.EntityProductOwner,
		EntityID: id,
	}
}

func blockDocument(id, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "record_validation",
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   domain.EntityLegalDocument,
		EntityID: id,
	}
}
