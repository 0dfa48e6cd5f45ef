package core

import (
	"sort"

	"estatecore/pkg/domain"
)

// Order derives the display ordering for a record set. It is pure: the
// input slice is never mutated and identical inputs yield identical output.
//
// With no explicit sort the active records keep their original order and the
// inactive ones follow, also in original order. An explicit status sort
// ranks the whole unpartitioned set by policy; it is the one mode where
// inactive records interleave with active ones. Every other column sorts
// only the active subset and appends the inactive records unmodified.
func Order[T domain.Record[T]](records []T, req *SortRequest, reg *Registry[T], policy domain.StatusPolicy) ([]T, error) {
	out := make([]T, len(records))
	copy(out, records)

	if req == nil {
		active, inactive := Partition(out, policy)
		return append(active, inactive...), nil
	}

	if req.Column == ColumnStatus {
		sort.SliceStable(out, func(i, j int) bool {
			c := policy.Rank(out[i].RecordStatus()) - policy.Rank(out[j].RecordStatus())
			if req.Direction == Descending {
				c = -c
			}
			return c < 0
		})
		return out, nil
	}

	cmp, err := reg.Lookup(req.Column)
	if err != nil {
		return nil, err
	}
	active, inactive := Partition(out, policy)
	sort.SliceStable(active, func(i, j int) bool {
		c := cmp(active[i], active[j])
		if req.Direction == Descending {
			c = -c
		}
		return c < 0
	})
	return append(active, inactive...), nil
}
