// Package domain defines the record types, status vocabulary, ordering
// policies, and rule evaluation primitives used by estatecore.
package domain

import "time"

// EntityType identifies the kind of record under management.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProductOwner identifies a product owner (person) record.
	EntityProductOwner EntityType = "product_owner"
	// EntityLegalDocument identifies a legal document record.
	EntityLegalDocument EntityType = "legal_document"
)

// Status is a lifecycle status value. The closed set of legal values depends
// on the entity kind; see the owner and document constants below.
type Status string

// Product owner lifecycle statuses.
const (
	OwnerActive   Status = "active"
	OwnerLapsed   Status = "lapsed"
	OwnerDeceased Status = "deceased"
)

// Legal document lifecycle statuses. The casing matches the wire values the
// backend collaborator exchanges.
const (
	DocumentSigned Status = "Signed"
	DocumentLapsed Status = "Lapsed"
)

// Record is the generic constraint satisfied by every entity the sort and
// mutation engine manages. Implementations are value types; WithStatus and
// Clone return copies and never alias mutable state.
type Record[T any] interface {
	RecordID() string
	RecordStatus() Status
	WithStatus(Status) T
	Clone() T
}

// ProductOwner is a person attached to an estate. DateOfBirth is an ISO-8601
// date (YYYY-MM-DD) or empty when unknown.
type ProductOwner struct {
	ID           string    `json:"id"`
	EstateID     string    `json:"estate_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	Email        string    `json:"email,omitempty"`
	Relationship string    `json:"relationship,omitempty"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecordID returns the stable record identifier.
func (o ProductOwner) RecordID() string { return o.ID }

// RecordStatus returns the current lifecycle status.
func (o ProductOwner) RecordStatus() Status { return o.Status }

// WithStatus returns a copy with the status replaced.
func (o ProductOwner) WithStatus(s Status) ProductOwner {
	o.Status = s
	return o
}

// Clone returns a deep copy.
func (o ProductOwner) Clone() ProductOwner { return o }

// LegalDocument is a legal document attached to an estate. OwnerNames holds
// denormalized display names matching OwnerIDs position for position.
// AttachmentKey references a scanned file in the blob store when present.
type LegalDocument struct {
	ID            string    `json:"id"`
	EstateID      string    `json:"estate_id"`
	Type          string    `json:"type"`
	DocumentDate  string    `json:"document_date,omitempty"`
	Status        Status    `json:"status"`
	OwnerIDs      []string  `json:"owner_ids,omitempty"`
	OwnerNames    []string  `json:"owner_names,omitempty"`
	AttachmentKey string    `json:"attachment_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RecordID returns the stable record identifier.
func (d LegalDocument) RecordID() string { return d.ID }

// RecordStatus returns the current lifecycle status.
func (d LegalDocument) RecordStatus() Status { return d.Status }

// WithStatus returns a copy with the status replaced.
func (d LegalDocument) WithStatus(s Status) LegalDocument {
	d.Status = s
	return d
}

// Clone returns a deep copy.
func (d LegalDocument) Clone() LegalDocument {
	cp := d
	cp.OwnerIDs = append([]string(nil), d.OwnerIDs...)
	cp.OwnerNames = append([]string(nil), d.OwnerNames...)
	return cp
}

// OwnerPatch is a partial field update for a product owner. Nil fields are
// left untouched.
type OwnerPatch struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	DateOfBirth  *string `json:"date_of_birth,omitempty"`
	Email        *string `json:"email,omitempty"`
	Relationship *string `json:"relationship,omitempty"`
}

// Apply copies the set fields onto the owner.
func (p OwnerPatch) Apply(o *ProductOwner) {
	if p.FirstName != nil {
		o.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		o.LastName = *p.LastName
	}
	if p.DateOfBirth != nil {
		o.DateOfBirth = *p.DateOfBirth
	}
	if p.Email != nil {
		o.Email = *p.Email
	}
	if p.Relationship != nil {
		o.Relationship = *p.Relationship
	}
}

// DocumentPatch is a partial field update for a legal document. Nil fields
// are left untouched; OwnerIDs and OwnerNames replace wholesale when set.
type DocumentPatch struct {
	Type          *string   `json:"type,omitempty"`
	DocumentDate  *string   `json:"document_date,omitempty"`
	OwnerIDs      *[]string `json:"owner_ids,omitempty"`
	OwnerNames    *[]string `json:"owner_names,omitempty"`
	AttachmentKey *string   `json:"attachment_key,omitempty"`
}

// Apply copies the set fields onto the document.
func (p DocumentPatch) Apply(d *LegalDocument) {
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.DocumentDate != nil {
		d.DocumentDate = *p.DocumentDate
	}
	if p.OwnerIDs != nil {
		d.OwnerIDs = append([]string(nil), *p.OwnerIDs...)
	}
	if p.OwnerNames != nil {
		d.OwnerNames = append([]string(nil), *p.OwnerNames...)
	}
	if p.AttachmentKey != nil {
		d.AttachmentKey = *p.AttachmentKey
	}
}

// Change describes a mutation applied to an entity during a store write.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported write operations.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	// ActionRemove indicates an entity was removed from the store.
	ActionRemove Action = "remove"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine write acceptance and logging.
const (
	// SeverityBlock rejects the write.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows the write.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "write blocked by rules"
}
