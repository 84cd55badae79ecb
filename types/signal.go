package types

// Exposure values commonly produced by discrete strategies. Continuous
// strategies may emit any finite weight.
const (
	Short = -1.0
	Flat  = 0.0
	Long  = 1.0
)

// Signal is the desired exposure per bar, aligned 1:1 with the series it was
// generated from. The value at bar t is executed at bar t+1.
type Signal []float64

// Constant returns a signal of length n holding v at every bar.
func Constant(n int, v float64) Signal {
	s := make(Signal, n)
	for i := range s {
		s[i] = v
	}
	return s
}
