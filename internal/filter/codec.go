package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseState decodes a full State from parsed query values. Total: any
// garbage in any param degrades to that param's empty default.
func ParseState(values url.Values) State {
	return State{
		Statuses:   canonicalSet(arrayParam(values, "status"), NormalizeStatus),
		BoardSlugs: canonicalSet(arrayParam(values, "board"), lowerSlug),
		TagSlugs:   canonicalSet(arrayParam(values, "tag"), lowerSlug),
		Search:     strings.TrimSpace(values.Get("search")),
		Order:      ParseOrder(values.Get("order")),
	}
}

// Encode renders the State as a canonical query string: params in fixed
// order, empty dimensions omitted, order omitted when it is the newest
// default. An all-default State encodes to "".
func (s State) Encode() string {
	parts := make([]string, 0, 5)
	if len(s.Statuses) > 0 {
		parts = append(parts, "status="+EncodeArrayParam(s.Statuses))
	}
	if len(s.BoardSlugs) > 0 {
		parts = append(parts, "board="+EncodeArrayParam(s.BoardSlugs))
	}
	if len(s.TagSlugs) > 0 {
		parts = append(parts, "tag="+EncodeArrayParam(s.TagSlugs))
	}
	if s.Search != "" {
		parts = append(parts, "search="+url.QueryEscape(s.Search))
	}
	if s.Order != OrderNewest {
		parts = append(parts, "order="+string(s.Order))
	}
	return strings.Join(parts, "&")
}

// Values is the url.Values counterpart of Encode: one entry per active
// dimension, set-valued params as their JSON array text. The values are
// stored decoded, so a later values.Encode percent-escapes exactly once,
// and ParseState(s.Values()) returns s.
func (s State) Values() url.Values {
	values := url.Values{}
	if len(s.Statuses) > 0 {
		values.Set("status", marshalStringArray(s.Statuses))
	}
	if len(s.BoardSlugs) > 0 {
		values.Set("board", marshalStringArray(s.BoardSlugs))
	}
	if len(s.TagSlugs) > 0 {
		values.Set("tag", marshalStringArray(s.TagSlugs))
	}
	if s.Search != "" {
		values.Set("search", s.Search)
	}
	if s.Order != OrderNewest {
		values.Set("order", string(s.Order))
	}
	return values
}

// Patch is a partial update to a State. Nil fields are left as they are
// in the current URL; non-nil fields replace the dimension outright.
type Patch struct {
	Statuses   *[]string
	BoardSlugs *[]string
	TagSlugs   *[]string
	Search     *string
	Order      *Order
}

func (p Patch) empty() bool {
	return p.Statuses == nil && p.BoardSlugs == nil && p.TagSlugs == nil &&
		p.Search == nil && p.Order == nil
}

// Apply returns a new State with the patch applied. The receiver is not
// modified.
func (s State) Apply(p Patch) State {
	next := s
	if p.Statuses != nil {
		next.Statuses = canonicalSet(*p.Statuses, NormalizeStatus)
	}
	if p.BoardSlugs != nil {
		next.BoardSlugs = canonicalSet(*p.BoardSlugs, lowerSlug)
	}
	if p.TagSlugs != nil {
		next.TagSlugs = canonicalSet(*p.TagSlugs, lowerSlug)
	}
	if p.Search != nil {
		next.Search = strings.TrimSpace(*p.Search)
	}
	if p.Order != nil {
		next.Order = *p.Order
	}
	return next
}

// BuildListURL produces the href for a filter change: the current URL's
// filter state with the patch applied, canonically re-encoded. Removing
// the last active dimension routes to the bare base path rather than a
// URL full of empty-array params, so browser history and shared links
// stay clean. A patch that changes any filter dimension drops the page
// param (the old page position is meaningless under a new filter); an
// empty patch carries it through, even on an otherwise unfiltered URL.
func BuildListURL(basePath string, current url.Values, patch Patch) string {
	next := ParseState(current).Apply(patch)

	parts := make([]string, 0, 2)
	if query := next.Encode(); query != "" {
		parts = append(parts, query)
	}
	if patch.empty() {
		if page := Page(current); page > 1 {
			parts = append(parts, "page="+strconv.Itoa(page))
		}
	}
	if len(parts) == 0 {
		return ClearAllURL(basePath)
	}
	return basePath + "?" + strings.Join(parts, "&")
}

// ClearAllURL is the base listing URL with no query parameters at all.
func ClearAllURL(basePath string) string {
	return strings.TrimSuffix(basePath, "?")
}

// Page reads the 1-based page param leniently; anything unusable is
// page 1.
func Page(values url.Values) int {
	raw := strings.TrimSpace(values.Get("page"))
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
