package shape

// multi repeats a child shape Count times along X, Spacing apart and
// centered on the child's own offset, and unions the copies.
type multi struct {
	reg *Registry
}

// NewMulti returns the composite shape. Children are looked up in reg at
// render time.
func NewMulti(reg *Registry) Shape { return &multi{reg: reg} }

func (m *multi) Kind() Kind { return Multi }

func (m *multi) Render(w, h int, p Params) Mask {
	out := NewMask(w, h)
	// nested multis are not supported; they would let a spec recurse forever
	if m.reg == nil || p.Child == nil || p.Child.Kind == Multi {
		return out
	}
	child, ok := m.reg.Get(p.Child.Kind)
	if !ok {
		return out
	}
	cp := p.Child.Params.Sanitize()
	for i := 0; i < p.Count; i++ {
		q := cp
		q.X = cp.X + (float64(i)-float64(p.Count-1)/2)*p.Spacing
		cm := child.Render(w, h, q)
		if len(cm.V) != len(out.V) {
			continue
		}
		for k, v := range cm.V {
			if v > out.V[k] {
				out.V[k] = v
			}
		}
	}
	return out
}
