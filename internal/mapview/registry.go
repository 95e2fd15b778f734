package mapview

import "github.com/calorsos/calorsos/internal/core/domain"

const (
	userKey      = "user"
	selectionKey = "selection"
)

type handle struct {
	marker Marker
	kind   MarkerKind
	at     domain.GeoPoint
	popup  Popup
}

// registry maps marker keys to live handles. An entry exists exactly while
// its marker is on the surface.
type registry struct {
	handles map[string]*handle
}

func newRegistry() *registry {
	return &registry{handles: make(map[string]*handle)}
}

func (r *registry) get(key string) (*handle, bool) {
	h, ok := r.handles[key]
	return h, ok
}

func (r *registry) put(key string, h *handle) {
	r.handles[key] = h
}

// drop removes the marker from the surface and forgets it.
func (r *registry) drop(key string) {
	if h, ok := r.handles[key]; ok {
		h.marker.Remove()
		delete(r.handles, key)
	}
}

// open opens the popup of key, reporting whether the marker exists.
func (r *registry) open(key string) bool {
	h, ok := r.handles[key]
	if !ok {
		return false
	}
	h.marker.OpenPopup()
	return true
}

func (r *registry) close(key string) {
	if h, ok := r.handles[key]; ok {
		h.marker.ClosePopup()
	}
}

func (r *registry) setHighlighted(key string, on bool) {
	if h, ok := r.handles[key]; ok {
		h.marker.SetHighlighted(on)
	}
}

func (r *registry) keysOf(kind MarkerKind) []string {
	var keys []string
	for k, h := range r.handles {
		if h.kind == kind {
			keys = append(keys, k)
		}
	}
	return keys
}

func (r *registry) len() int { return len(r.handles) }

func (r *registry) clear() {
	for k := range r.handles {
		r.drop(k)
	}
}
