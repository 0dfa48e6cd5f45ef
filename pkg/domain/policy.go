package domain

// StatusPolicy ranks the legal status values of one entity kind. The ranking
// drives both the active/inactive display partition and explicit status
// sorts: rank zero is the "current" state, anything above it is inactive.
type StatusPolicy struct {
	entity EntityType
	ranks  map[Status]int
	order  []Status
}

// NewStatusPolicy builds a policy from statuses listed in ascending rank.
func NewStatusPolicy(entity EntityType, ordered ...Status) StatusPolicy {
	ranks := make(map[Status]int, len(ordered))
	for i, s := range ordered {
		ranks[s] = i
	}
	return StatusPolicy{entity: entity, ranks: ranks, order: append([]Status(nil), ordered...)}
}

// Entity returns the entity kind the policy applies to.
func (p StatusPolicy) Entity() EntityType { return p.entity }

// Rank returns the position of s in the policy ordering. Unknown statuses
// rank after every known one so malformed records sink rather than surface.
func (p StatusPolicy) Rank(s Status) int {
	if r, ok := p.ranks[s]; ok {
		return r
	}
	return len(p.ranks)
}

// Inactive reports whether s counts as inactive for display partitioning.
func (p StatusPolicy) Inactive(s Status) bool { return p.Rank(s) > 0 }

// Statuses returns the legal status values in ascending rank order.
func (p StatusPolicy) Statuses() []Status {
	return append([]Status(nil), p.order...)
}

// OwnerStatusPolicy ranks product owner statuses: active < lapsed < deceased.
var OwnerStatusPolicy = NewStatusPolicy(EntityProductOwner, OwnerActive, OwnerLapsed, OwnerDeceased)

// DocumentStatusPolicy ranks legal document statuses: Signed < Lapsed.
var DocumentStatusPolicy = NewStatusPolicy(EntityLegalDocument, DocumentSigned, DocumentLapsed)

// PolicyFor returns the status policy for an entity kind.
func PolicyFor(entity EntityType) (StatusPolicy, bool) {
	switch entity {
	case EntityProductOwner:
		return OwnerStatusPolicy, true
	case EntityLegalDocument:
		return DocumentStatusPolicy, true
	default:
		return StatusPolicy{}, false
	}
}
