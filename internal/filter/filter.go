// Package filter is the single shared codec between listing filter state
// and its URL query-string representation. Every place that builds a
// filter chip, a prev/next href, or a list query goes through this
// package so the encoding cannot drift between call sites.
package filter

import (
	"sort"
	"strings"
)

// Order is the listing sort order.
type Order string

const (
	OrderNewest Order = "newest"
	OrderOldest Order = "oldest"
	OrderLikes  Order = "likes"
)

// ParseOrder normalizes the order param. Anything unrecognized falls back
// to newest, the default.
func ParseOrder(raw string) Order {
	switch Order(strings.ToLower(strings.TrimSpace(raw))) {
	case OrderOldest:
		return OrderOldest
	case OrderLikes:
		return OrderLikes
	default:
		return OrderNewest
	}
}

// Canonical status tokens. The admin UI historically used two spellings
// for two of them; the aliases are accepted on parse and never emitted.
const (
	StatusPending   = "pending"
	StatusReview    = "review"
	StatusPlanned   = "planned"
	StatusProgress  = "progress"
	StatusCompleted = "completed"
	StatusClosed    = "closed"
)

var statusAliases = map[string]string{
	"under-review": StatusReview,
	"in-progress":  StatusProgress,
}

// KnownStatuses lists the canonical vocabulary in board-column order.
var KnownStatuses = []string{
	StatusPending,
	StatusReview,
	StatusPlanned,
	StatusProgress,
	StatusCompleted,
	StatusClosed,
}

// NormalizeStatus lowercases a status token and rewrites known aliases to
// their canonical spelling. Unknown tokens pass through lowercased; the
// codec does not validate against the vocabulary (stale links keep
// degrading to an empty match set instead of erroring).
func NormalizeStatus(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := statusAliases[token]; ok {
		return canonical
	}
	return token
}

// State is the canonical in-memory representation of the active listing
// filters. Set-valued fields are stored normalized, de-duplicated, and
// sorted so that encoding the same set is deterministic regardless of
// insertion order. Values are never mutated in place; every change
// produces a new State.
type State struct {
	Statuses   []string
	BoardSlugs []string
	TagSlugs   []string
	Search     string
	Order      Order
}

// AnyActive reports whether any filter dimension is active. Oldest-first
// is the one sort order that counts as a filter: the default listing is
// newest, so an oldest listing must survive a shared link and show the
// clear-all affordance. Likes does not count.
func (s State) AnyActive() bool {
	if len(s.Statuses) > 0 || len(s.BoardSlugs) > 0 || len(s.TagSlugs) > 0 {
		return true
	}
	if s.Search != "" {
		return true
	}
	return s.Order == OrderOldest
}

func canonicalSet(items []string, normalize func(string) string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		token := normalize(item)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

func lowerSlug(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
