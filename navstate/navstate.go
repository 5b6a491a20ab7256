// Package navstate serializes the reading position into URL query
// parameters so that reloading or sharing a link restores it.
//
// Three parameters are used: page (current page index), ppi (resolution),
// and offset (scroll position within the page, 0.0 to 1.0). The Syncer
// skips writes when nothing changed, to avoid redundant history churn.
package navstate

import (
	"net/url"
	"strconv"
	"sync"
)

// Query parameter names.
const (
	ParamPage   = "page"
	ParamPPI    = "ppi"
	ParamOffset = "offset"
)

// State is the persisted reading position.
type State struct {
	Page   int     // current page index, 0-based
	PPI    float64 // rendering resolution
	Offset float64 // scroll offset within the page, 0.0-1.0
}

// Location is the addressable-location collaborator: wherever the host
// application keeps its current URL query (browser history, a config file,
// or plain memory).
type Location interface {
	// Query returns the current query values.
	Query() url.Values

	// SetQuery replaces the current query values.
	SetQuery(url.Values)
}

// Encode writes the state into a copy of base and returns it.
// Unrelated parameters in base are preserved.
func Encode(base url.Values, s State) url.Values {
	out := url.Values{}
	for k, vs := range base {
		out[k] = append([]string(nil), vs...)
	}
	out.Set(ParamPage, strconv.Itoa(s.Page))
	out.Set(ParamPPI, strconv.FormatFloat(s.PPI, 'f', -1, 64))
	out.Set(ParamOffset, strconv.FormatFloat(s.Offset, 'f', 4, 64))
	return out
}

// Decode reads a state from query values. ok is false when no reading
// position is present at all; partially present values decode with the
// missing fields left zero.
func Decode(q url.Values) (s State, ok bool) {
	if v := q.Get(ParamPage); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			s.Page = n
			ok = true
		}
	}
	if v := q.Get(ParamPPI); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			s.PPI = f
			ok = true
		}
	}
	if v := q.Get(ParamOffset); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			s.Offset = f
			ok = true
		}
	}
	return s, ok
}

// Syncer writes states to a Location, skipping unchanged writes.
type Syncer struct {
	loc   Location
	last  State
	wrote bool
}

// NewSyncer creates a syncer over the given location.
func NewSyncer(loc Location) *Syncer {
	return &Syncer{loc: loc}
}

// Sync writes the state to the location unless it equals the last state
// written. Returns true if a write happened.
func (y *Syncer) Sync(s State) bool {
	if y.wrote && s == y.last {
		return false
	}
	y.loc.SetQuery(Encode(y.loc.Query(), s))
	y.last = s
	y.wrote = true
	return true
}

// MemoryLocation is an in-process Location, used by tests and by hosts
// without an addressable URL.
//
// MemoryLocation is safe for concurrent use.
type MemoryLocation struct {
	mu sync.Mutex
	q  url.Values
}

// NewMemoryLocation creates an empty in-memory location.
func NewMemoryLocation() *MemoryLocation {
	return &MemoryLocation{q: url.Values{}}
}

// Query returns a copy of the current values.
func (m *MemoryLocation) Query() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := url.Values{}
	for k, vs := range m.q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// SetQuery replaces the current values.
func (m *MemoryLocation) SetQuery(q url.Values) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.q = q
}
