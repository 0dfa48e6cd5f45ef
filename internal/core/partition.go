package core

import "estatecore/pkg/domain"

// Partition splits records into active and inactive subsets per the status
// policy, preserving each subset's relative order exactly. No sorting
// happens here.
func Partition[T domain.Record[T]](records []T, policy domain.StatusPolicy) (active, inactive []T) {
	for _, rec := range records {
		if policy.Inactive(rec.RecordStatus()) {
			inactive = append(inactive, rec)
		} else {
			active = append(active, rec)
		}
	}
	return active, inactive
}
