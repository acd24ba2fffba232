package app

import (
	"context"
	"sort"

	"feedbase/api/internal/filter"
	"feedbase/api/internal/store"
)

// NavTarget is one side of a prev/next pair, reduced to what a detail
// page needs to build a link.
type NavTarget struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Navigation holds the posts adjacent to a target within a filtered,
// ordered listing. A nil side means the target sits at that extremity.
type Navigation struct {
	Prev *NavTarget `json:"prev"`
	Next *NavTarget `json:"next"`
}

// GetPostNavigation recomputes the ordered collection the given filter
// state would list and returns the posts immediately around the target,
// identified by id or slug. A target that is not in the filtered set,
// including one that belongs to another workspace, yields both sides
// nil rather than an error: it
// may have been retriaged or deleted between the list view and this
// call, and cross-tenant probes must not learn anything either way.
func (s *Service) GetPostNavigation(ctx context.Context, workspaceSlug, target string, state filter.State) (Navigation, error) {
	ws, err := s.ResolveWorkspace(ctx, workspaceSlug)
	if err != nil {
		return Navigation{}, err
	}

	refs, err := s.store.ListPostRefs(ctx, ws.ID, toListFilter(state))
	if err != nil {
		return Navigation{}, err
	}
	sortRefs(refs, state.Order)

	idx := -1
	for i, ref := range refs {
		if ref.ID == target || ref.Slug == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Navigation{}, nil
	}

	var nav Navigation
	if idx > 0 {
		nav.Prev = &NavTarget{Slug: refs[idx-1].Slug, Title: refs[idx-1].Title}
	}
	if idx < len(refs)-1 {
		nav.Next = &NavTarget{Slug: refs[idx+1].Slug, Title: refs[idx+1].Title}
	}
	return nav, nil
}

// sortRefs orders refs the way a full listing would. The store already
// orders its result, but the resolver re-sorts with the exact comparator
// so neighbor computation never depends on the backend's collation
// quirks. Ties always break on id, which keeps repeated calls identical.
func sortRefs(refs []store.PostRef, order filter.Order) {
	switch order {
	case filter.OrderOldest:
		sort.Slice(refs, func(i, j int) bool {
			if !refs[i].CreatedAt.Equal(refs[j].CreatedAt) {
				return refs[i].CreatedAt.Before(refs[j].CreatedAt)
			}
			return refs[i].ID < refs[j].ID
		})
	case filter.OrderLikes:
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Upvotes != refs[j].Upvotes {
				return refs[i].Upvotes > refs[j].Upvotes
			}
			if !refs[i].CreatedAt.Equal(refs[j].CreatedAt) {
				return refs[i].CreatedAt.After(refs[j].CreatedAt)
			}
			return refs[i].ID > refs[j].ID
		})
	default:
		sort.Slice(refs, func(i, j int) bool {
			if !refs[i].CreatedAt.Equal(refs[j].CreatedAt) {
				return refs[i].CreatedAt.After(refs[j].CreatedAt)
			}
			return refs[i].ID > refs[j].ID
		})
	}
}
