package favorites

import "slices"

// Set is an immutable set of spot ids. Operations that change membership
// return a new Set, so a Set handed out is never mutated underneath its holder.
type Set struct {
	ids map[string]struct{}
}

func NewSet(ids ...string) Set {
	s := Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s Set) Contains(spotID string) bool {
	_, ok := s.ids[spotID]
	return ok
}

func (s Set) Len() int {
	return len(s.ids)
}

// IDs returns the members in ascending order.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Toggle flips spotID and reports whether it is now a member.
func (s Set) Toggle(spotID string) (Set, bool) {
	next := Set{ids: make(map[string]struct{}, len(s.ids)+1)}
	for id := range s.ids {
		next.ids[id] = struct{}{}
	}
	if _, ok := next.ids[spotID]; ok {
		delete(next.ids, spotID)
		return next, false
	}
	next.ids[spotID] = struct{}{}
	return next, true
}

func (s Set) Equal(o Set) bool {
	if len(s.ids) != len(o.ids) {
		return false
	}
	for id := range s.ids {
		if !o.Contains(id) {
			return false
		}
	}
	return true
}
