package shape

import "sort"

// Registry maps a kind to its implementation. It is populated at startup
// and read-only afterwards.
type Registry struct{ m map[Kind]Shape }

func NewRegistry() *Registry { return &Registry{m: map[Kind]Shape{}} }

// Default returns a registry with every built-in shape.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Func{K: Line, F: renderLine})
	r.Register(Func{K: Rect, F: renderRect})
	r.Register(Func{K: Circle, F: renderCircle})
	r.Register(Func{K: Ring, F: renderRing})
	r.Register(Func{K: Noise, F: renderNoise})
	r.Register(NewMulti(r))
	return r
}

func (r *Registry) Register(s Shape) {
	if s == nil {
		return
	}
	r.m[s.Kind()] = s
}

func (r *Registry) Get(k Kind) (Shape, bool) {
	s, ok := r.m[k]
	return s, ok
}

// List returns the registered kinds in sorted order.
func (r *Registry) List() []Kind {
	out := make([]Kind, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Render sanitizes the parameters and renders spec. Unknown kinds and
// renderers that return a malformed mask yield an all-zero mask; Render
// never fails.
func (r *Registry) Render(w, h int, spec Spec) Mask {
	if w <= 0 || h <= 0 {
		return NewMask(0, 0)
	}
	s, ok := r.Get(spec.Kind)
	if !ok {
		return NewMask(w, h)
	}
	return checked(s.Render(w, h, spec.Params.Sanitize()), w, h)
}

func checked(m Mask, w, h int) Mask {
	if m.W != w || m.H != h || len(m.V) != w*h {
		return NewMask(w, h)
	}
	for i, v := range m.V {
		if !(v >= 0) {
			m.V[i] = 0
		} else if v > 1 {
			m.V[i] = 1
		}
	}
	return m
}
