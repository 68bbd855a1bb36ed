package chart

import "sync"

// DefaultWidth is used until the client reports its surface width
const DefaultWidth = 800

// Viewport is the rendering surface the client reports. Resizes are pushed to
// subscribers as they happen.
type Viewport struct {
	mu     sync.Mutex
	width  int
	nextID int
	subs   map[int]func(width int)
}

// NewViewport creates a viewport with the given initial width
func NewViewport(width int) *Viewport {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Viewport{width: width, subs: make(map[int]func(int))}
}

// Width returns the current surface width
func (v *Viewport) Width() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width
}

// Resize records a new width and notifies subscribers when it changed
func (v *Viewport) Resize(width int) {
	if width <= 0 {
		return
	}

	v.mu.Lock()
	if width == v.width {
		v.mu.Unlock()
		return
	}
	v.width = width
	fns := make([]func(int), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(width)
	}
}

// Subscribe registers fn for resize events. The returned cancel func is
// idempotent.
func (v *Viewport) Subscribe(fn func(width int)) (cancel func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions
func (v *Viewport) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}
