package filter

import (
	"net/url"
	"reflect"
	"testing"
)

func mustParseQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	values, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse query %q: %v", raw, err)
	}
	return values
}

func TestParseStateCanonicalizes(t *testing.T) {
	values := mustParseQuery(t, "status=%5B%22Planned%22%2C%22under-review%22%2C%22planned%22%5D&board=%5B%22Bugs%22%5D&tag=%5B%22UX%22%2C%22ux%22%5D&search=+dark+mode+&order=LIKES")
	st := ParseState(values)

	if want := []string{"planned", "review"}; !reflect.DeepEqual(st.Statuses, want) {
		t.Errorf("Statuses = %v, want %v", st.Statuses, want)
	}
	if want := []string{"bugs"}; !reflect.DeepEqual(st.BoardSlugs, want) {
		t.Errorf("BoardSlugs = %v, want %v", st.BoardSlugs, want)
	}
	if want := []string{"ux"}; !reflect.DeepEqual(st.TagSlugs, want) {
		t.Errorf("TagSlugs = %v, want %v", st.TagSlugs, want)
	}
	if st.Search != "dark mode" {
		t.Errorf("Search = %q, want %q", st.Search, "dark mode")
	}
	if st.Order != OrderLikes {
		t.Errorf("Order = %q, want likes", st.Order)
	}
}

func TestParseStateDefaults(t *testing.T) {
	st := ParseState(url.Values{})
	if st.AnyActive() {
		t.Error("empty values should parse to an inactive state")
	}
	if st.Order != OrderNewest {
		t.Errorf("Order = %q, want newest", st.Order)
	}

	garbage := mustParseQuery(t, "status=garbage&board=%7B%7D&tag=42&order=sideways&search=%20%20")
	st = ParseState(garbage)
	if st.AnyActive() {
		t.Errorf("garbage params should degrade to no filter, got %+v", st)
	}
}

func TestEncodeDeterministicAcrossInsertionOrder(t *testing.T) {
	a := ParseState(url.Values{"tag": {`["ux","bug"]`}})
	b := ParseState(url.Values{"tag": {`["bug","ux"]`}})
	if a.Encode() != b.Encode() {
		t.Errorf("same set encoded differently: %q vs %q", a.Encode(), b.Encode())
	}
}

func TestEncodeOmitsDefaults(t *testing.T) {
	st := State{Order: OrderNewest}
	if got := st.Encode(); got != "" {
		t.Errorf("default state Encode() = %q, want empty", got)
	}

	st = State{Statuses: []string{"planned"}}
	if got := st.Encode(); got != "status=%5B%22planned%22%5D" {
		t.Errorf("Encode() = %q", got)
	}
}

func TestEncodeParseStateRoundTrip(t *testing.T) {
	st := State{
		Statuses:   []string{"planned", "review"},
		BoardSlugs: []string{"bugs"},
		TagSlugs:   []string{"dark-mode"},
		Search:     "contrast",
		Order:      OrderOldest,
	}
	got := ParseState(mustParseQuery(t, st.Encode()))
	if !reflect.DeepEqual(got, st) {
		t.Errorf("round-trip state mismatch:\n got %+v\nwant %+v", got, st)
	}
}

func TestOldestCountsAsActiveFilter(t *testing.T) {
	oldest := State{Order: OrderOldest}
	if !oldest.AnyActive() {
		t.Error("order=oldest must count as an active filter")
	}
	newest := State{Order: OrderNewest}
	if newest.AnyActive() {
		t.Error("order=newest must not count as an active filter")
	}
	likes := State{Order: OrderLikes}
	if likes.AnyActive() {
		t.Error("order=likes must not count as an active filter")
	}
}

func TestClearAllIsIdempotent(t *testing.T) {
	base := "/b/feedback"
	cleared := ClearAllURL(base)
	if cleared != base {
		t.Errorf("ClearAllURL = %q, want bare base path", cleared)
	}
	parsed, err := url.Parse(cleared)
	if err != nil {
		t.Fatalf("parse cleared url: %v", err)
	}
	if ParseState(parsed.Query()).AnyActive() {
		t.Error("state parsed from ClearAllURL must be inactive")
	}
}

func TestBuildListURLPatchesOneDimension(t *testing.T) {
	current := mustParseQuery(t, "status=%5B%22planned%22%5D&tag=%5B%22bug%22%5D")
	tags := []string{"bug", "ux"}
	got := BuildListURL("/b/feedback", current, Patch{TagSlugs: &tags})
	want := "/b/feedback?status=%5B%22planned%22%5D&tag=%5B%22bug%22%2C%22ux%22%5D"
	if got != want {
		t.Errorf("BuildListURL = %q, want %q", got, want)
	}
}

func TestBuildListURLRemovingLastFilterClearsAll(t *testing.T) {
	current := mustParseQuery(t, "tag=%5B%22bug%22%5D")
	empty := []string{}
	got := BuildListURL("/b/feedback", current, Patch{TagSlugs: &empty})
	if got != ClearAllURL("/b/feedback") {
		t.Errorf("BuildListURL = %q, want bare base path, not empty-array params", got)
	}
}

func TestBuildListURLKeepsOtherActiveDimensions(t *testing.T) {
	current := mustParseQuery(t, "status=%5B%22planned%22%5D&tag=%5B%22bug%22%5D")
	empty := []string{}
	got := BuildListURL("/b/feedback", current, Patch{TagSlugs: &empty})
	want := "/b/feedback?status=%5B%22planned%22%5D"
	if got != want {
		t.Errorf("BuildListURL = %q, want %q", got, want)
	}
}

func TestBuildListURLFilterChangeResetsPage(t *testing.T) {
	current := mustParseQuery(t, "status=%5B%22planned%22%5D&page=3")
	statuses := []string{"completed"}
	got := BuildListURL("/b/feedback", current, Patch{Statuses: &statuses})
	if pageParam(t, got) != "" {
		t.Errorf("BuildListURL = %q, page must reset when the filter changes", got)
	}

	carried := BuildListURL("/b/feedback", current, Patch{})
	if pageParam(t, carried) != "3" {
		t.Errorf("BuildListURL with empty patch = %q, want page carried", carried)
	}
}

func TestBuildListURLCarriesPageWithoutFilters(t *testing.T) {
	current := mustParseQuery(t, "page=3")
	got := BuildListURL("/b/feedback", current, Patch{})
	if want := "/b/feedback?page=3"; got != want {
		t.Errorf("BuildListURL = %q, want %q", got, want)
	}

	first := BuildListURL("/b/feedback", mustParseQuery(t, "page=1"), Patch{})
	if first != ClearAllURL("/b/feedback") {
		t.Errorf("BuildListURL on page 1 = %q, want bare base path", first)
	}
}

func TestStateValuesRoundTrip(t *testing.T) {
	st := State{
		Statuses:   []string{"planned", "progress"},
		BoardSlugs: []string{"bugs"},
		TagSlugs:   []string{"ux"},
		Search:     "dark mode",
		Order:      OrderLikes,
	}
	if got := ParseState(st.Values()); !reflect.DeepEqual(got, st) {
		t.Errorf("ParseState(Values()) = %+v, want %+v", got, st)
	}

	if values := (State{Order: OrderNewest}).Values(); len(values) != 0 {
		t.Errorf("default state Values = %v, want empty", values)
	}
}

func pageParam(t *testing.T, rawURL string) string {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %q: %v", rawURL, err)
	}
	return parsed.Query().Get("page")
}

func TestPage(t *testing.T) {
	cases := map[string]int{
		"":          1,
		"page=0":    1,
		"page=-2":   1,
		"page=abc":  1,
		"page=2":   2,
		"page=17":  17,
		"page=2.5": 1,
	}
	for raw, want := range cases {
		values, _ := url.ParseQuery(raw)
		if got := Page(values); got != want {
			t.Errorf("Page(%q) = %d, want %d", raw, got, want)
		}
	}
}
