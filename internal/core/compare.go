// Package core implements the lifecycle-aware sort and optimistic mutation
// engine: per-column comparators, the active/inactive partitioner, the sort
// orchestrator, and the mutation session coordinating optimistic applies
// against a backend store.
package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"estatecore/pkg/domain"
)

// Direction selects ascending or descending order for a sort request.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ColumnStatus is the one column the orchestrator handles itself: an
// explicit status sort ranks the whole record set by policy and skips the
// active/inactive partition.
const ColumnStatus = "status"

// SortRequest names a column and direction. A nil *SortRequest means "no
// explicit sort"; the partition invariant still applies.
type SortRequest struct {
	Column    string
	Direction Direction
}

// Comparator orders two records ascending: negative when a sorts before b.
// The orchestrator negates the result for descending requests, which also
// flips the absent-value placement.
type Comparator[T any] func(a, b T) int

// UnknownColumnError reports a sort request for a column the registry does
// not know. This is a configuration defect, not a user-facing failure.
type UnknownColumnError struct {
	Entity domain.EntityType
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("no comparator registered for %s column %q", e.Entity, e.Column)
}

// Registry maps column keys to comparators for one entity kind.
type Registry[T any] struct {
	entity  domain.EntityType
	columns map[string]Comparator[T]
}

// NewRegistry constructs an empty registry for the entity kind.
func NewRegistry[T any](entity domain.EntityType) *Registry[T] {
	return &Registry[T]{entity: entity, columns: make(map[string]Comparator[T])}
}

// Register adds or replaces the comparator for a column key.
func (r *Registry[T]) Register(column string, cmp Comparator[T]) {
	r.columns[column] = cmp
}

// Lookup resolves a column's comparator. Unknown columns yield an
// *UnknownColumnError; callers must treat that as a programmer error.
func (r *Registry[T]) Lookup(column string) (Comparator[T], error) {
	cmp, ok := r.columns[column]
	if !ok {
		return nil, &UnknownColumnError{Entity: r.entity, Column: column}
	}
	return cmp, nil
}

// Columns returns the registered column keys in sorted order.
func (r *Registry[T]) Columns() []string {
	keys := make([]string, 0, len(r.columns))
	for k := range r.columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// absent reports whether a string value counts as missing: empty after
// trimming. Callers treat nil-backed fields as empty strings.
func absent(s string) bool { return strings.TrimSpace(s) == "" }

// CompareStrings orders two string values ascending, case-insensitively,
// after trimming. Absent values sort after present ones; both absent is a
// tie.
func CompareStrings(a, b string) int {
	aAbsent, bAbsent := absent(a), absent(b)
	switch {
	case aAbsent && bAbsent:
		return 0
	case aAbsent:
		return 1
	case bAbsent:
		return -1
	}
	return strings.Compare(strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b)))
}

// CompareDates orders two ISO-8601 dates (YYYY-MM-DD) ascending. The
// lexicographic comparison equals chronological order for this format.
// Absent dates sort after present ones.
func CompareDates(a, b string) int {
	aAbsent, bAbsent := absent(a), absent(b)
	switch {
	case aAbsent && bAbsent:
		return 0
	case aAbsent:
		return 1
	case bAbsent:
		return -1
	}
	return strings.Compare(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CompareOwnerNames orders owners by last name then first name. Owners with
// an absent last name sort FIRST ascending: a missing primary name part is a
// data-quality flag to surface, not a value to bury. This deliberately
// inverts the general absent-last policy and must not be reused for other
// columns.
func CompareOwnerNames(a, b domain.ProductOwner) int {
	aAbsent, bAbsent := absent(a.LastName), absent(b.LastName)
	switch {
	case aAbsent && !bAbsent:
		return -1
	case !aAbsent && bAbsent:
		return 1
	case aAbsent && bAbsent:
		return CompareStrings(a.FirstName, b.FirstName)
	}
	if c := CompareStrings(a.LastName, b.LastName); c != 0 {
		return c
	}
	return CompareStrings(a.FirstName, b.FirstName)
}

// ageYears computes whole years between an ISO date of birth and now.
// Returns false when the date is absent or malformed.
func ageYears(dob string, now time.Time) (int, bool) {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return 0, false
	}
	born, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0, false
	}
	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	return years, true
}

// OwnerRegistry builds the comparator registry for product owner columns.
// The derived age column computes each owner's age at comparison time from
// the supplied clock.
func OwnerRegistry(now func() time.Time) *Registry[domain.ProductOwner] {
	r := NewRegistry[domain.ProductOwner](domain.EntityProductOwner)
	r.Register("name", CompareOwnerNames)
	r.Register("firstName", func(a, b domain.ProductOwner) int {
		return CompareStrings(a.FirstName, b.FirstName)
	})
	r.Register("dob", func(a, b domain.ProductOwner) int {
		return CompareDates(a.DateOfBirth, b.DateOfBirth)
	})
	r.Register("age", func(a, b domain.ProductOwner) int {
		ts := now()
		ageA, okA := ageYears(a.DateOfBirth, ts)
		ageB, okB := ageYears(b.DateOfBirth, ts)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		case ageA < ageB:
			return -1
		case ageA > ageB:
			return 1
		}
		return 0
	})
	r.Register("email", func(a, b domain.ProductOwner) int {
		return CompareStrings(a.Email, b.Email)
	})
	r.Register("relationship", func(a, b domain.ProductOwner) int {
		return CompareStrings(a.Relationship, b.Relationship)
	})
	return r
}

// DocumentRegistry builds the comparator registry for legal document
// columns. The owners column compares the joined display names.
func DocumentRegistry() *Registry[domain.LegalDocument] {
	r := NewRegistry[domain.LegalDocument](domain.EntityLegalDocument)
	r.Register("type", func(a, b domain.LegalDocument) int {
		return CompareStrings(a.Type, b.Type)
	})
	r.Register("date", func(a, b domain.LegalDocument) int {
		return CompareDates(a.DocumentDate, b.DocumentDate)
	})
	r.Register("owners", func(a, b domain.LegalDocument) int {
		return CompareStrings(strings.Join(a.OwnerNames, ", "), strings.Join(b.OwnerNames, ", "))
	})
	return r
}
