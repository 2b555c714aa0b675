package gbtree

// GPair is an additive pair of a gradient and a hessian statistic for a
// single row/output. Its zero value (0, 0) is the additive identity.
type GPair struct {
	G float64
	H float64
}

// Add returns the componentwise sum p + o.
func (p GPair) Add(o GPair) GPair {
	return GPair{G: p.G + o.G, H: p.H + o.H}
}

// Sub returns the componentwise difference p - o.
func (p GPair) Sub(o GPair) GPair {
	return GPair{G: p.G - o.G, H: p.H - o.H}
}

// AddFrom accumulates o into p in place.
func (p *GPair) AddFrom(o GPair) {
	p.G += o.G
	p.H += o.H
}

// FlattenGPairs copies pairs into a new contiguous float64 slice, the
// form the all-reduce contract requires: an array of GPair is treated as
// an array of doubles of twice the length.
func FlattenGPairs(pairs []GPair) []float64 {
	flat := make([]float64, 2*len(pairs))
	for i, p := range pairs {
		flat[2*i] = p.G
		flat[2*i+1] = p.H
	}
	return flat
}

// UnflattenGPairs is the inverse of FlattenGPairs, writing into an
// already-sized pairs slice.
func UnflattenGPairs(flat []float64, pairs []GPair) {
	for i := range pairs {
		pairs[i] = GPair{G: flat[2*i], H: flat[2*i+1]}
	}
}
