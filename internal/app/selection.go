package app

import "sort"

// Selection models the bulk-action state of a listing: either nothing is
// being selected, or a set of post ids is. Every operation returns a new
// value, so two requests can never observe a half-applied transition.
type Selection struct {
	Selecting bool
	IDs       []string
}

// NewSelection returns the idle state.
func NewSelection() Selection {
	return Selection{}
}

// Start enters selection mode with nothing selected.
func (s Selection) Start() Selection {
	return Selection{Selecting: true, IDs: []string{}}
}

// Toggle adds the id to the selection, or removes it if already present.
// Toggling from the idle state implicitly starts selecting.
func (s Selection) Toggle(id string) Selection {
	if id == "" {
		return s
	}
	next := s.Start()
	found := false
	for _, existing := range s.IDs {
		if existing == id {
			found = true
			continue
		}
		next.IDs = append(next.IDs, existing)
	}
	if !found {
		next.IDs = append(next.IDs, id)
		sort.Strings(next.IDs)
	}
	return next
}

// SelectAll replaces the selection with the given ids, de-duplicated and
// sorted. Empty ids are dropped.
func (s Selection) SelectAll(ids []string) Selection {
	next := s.Start()
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		next.IDs = append(next.IDs, id)
	}
	sort.Strings(next.IDs)
	return next
}

// Clear leaves selection mode entirely.
func (s Selection) Clear() Selection {
	return Selection{}
}

// RemoveIDs drops ids from the selection, typically after the posts they
// referred to were deleted. Selection mode stays active even when this
// empties the set.
func (s Selection) RemoveIDs(ids []string) Selection {
	if !s.Selecting {
		return s
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	next := s.Start()
	for _, existing := range s.IDs {
		if _, gone := drop[existing]; gone {
			continue
		}
		next.IDs = append(next.IDs, existing)
	}
	return next
}

// Contains reports whether the id is currently selected.
func (s Selection) Contains(id string) bool {
	for _, existing := range s.IDs {
		if existing == id {
			return true
		}
	}
	return false
}
