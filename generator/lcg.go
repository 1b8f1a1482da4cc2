package generator

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// lcg is the small linear-congruential sequence the synthetic datasets are
// keyed on. It is not suitable for anything but reproducible demo data.
type lcg struct {
	state int64
}

// newLCG reduces seed into [0, lcgModulus) so any int64 seed is usable.
func newLCG(seed int64) *lcg {
	s := seed % lcgModulus
	if s < 0 {
		s += lcgModulus
	}
	return &lcg{state: s}
}

// Float returns the next value in [0, 1).
func (r *lcg) Float() float64 {
	r.state = (r.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(r.state) / lcgModulus
}

// Intn returns the next value in [0, n).
func (r *lcg) Intn(n int) int {
	return int(r.Float() * float64(n))
}
