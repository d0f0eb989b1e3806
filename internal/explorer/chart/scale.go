// internal/explorer/chart/scale.go
package chart

import "math"

// BandScale maps categories to evenly spaced bands across a pixel range.
type BandScale struct {
	domain    []string
	index     map[string]int
	start     float64
	step      float64
	bandwidth float64
}

// NewBandScale lays out domain over [r0, r1]. Inner padding is a fraction of
// the step left between bands; outer padding is in steps at both ends; align
// places the leftover space (0.5 centres the bands).
func NewBandScale(domain []string, r0, r1, paddingInner, paddingOuter, align float64) *BandScale {
	n := float64(len(domain))
	step := (r1 - r0) / math.Max(1, n-paddingInner+2*paddingOuter)
	start := r0 + (r1-r0-step*(n-paddingInner))*align

	index := make(map[string]int, len(domain))
	for i, d := range domain {
		index[d] = i
	}
	return &BandScale{
		domain:    append([]string{}, domain...),
		index:     index,
		start:     start,
		step:      step,
		bandwidth: step * (1 - paddingInner),
	}
}

// Position returns the left edge of v's band.
func (b *BandScale) Position(v string) (float64, bool) {
	i, ok := b.index[v]
	if !ok {
		return 0, false
	}
	return b.start + b.step*float64(i), true
}

func (b *BandScale) Bandwidth() float64 { return b.bandwidth }

func (b *BandScale) Step() float64 { return b.step }

func (b *BandScale) Domain() []string { return append([]string{}, b.domain...) }

// LinearScale maps a continuous domain onto a pixel range.
type LinearScale struct {
	d0, d1 float64
	r0, r1 float64
}

func NewLinearScale(d0, d1, r0, r1 float64) *LinearScale {
	return &LinearScale{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Map converts a domain value to pixels. A collapsed domain maps to the
// middle of the range.
func (s *LinearScale) Map(v float64) float64 {
	if s.d1 == s.d0 {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (v-s.d0)/(s.d1-s.d0)*(s.r1-s.r0)
}

func (s *LinearScale) Domain() (float64, float64) { return s.d0, s.d1 }

// Nice extends the domain to round tick boundaries for roughly count ticks.
func (s *LinearScale) Nice(count int) *LinearScale {
	d0, d1 := nice(s.d0, s.d1, count)
	return &LinearScale{d0: d0, d1: d1, r0: s.r0, r1: s.r1}
}

// Ticks returns round values spanning the domain.
func (s *LinearScale) Ticks(count int) []float64 {
	return ticks(s.d0, s.d1, count)
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

func stepFactor(err float64) float64 {
	switch {
	case err >= e10:
		return 10
	case err >= e5:
		return 5
	case err >= e2:
		return 2
	}
	return 1
}

// tickIncrement returns the tick step for [start, stop]. Negative results
// encode steps below one as their inverse (-20 means 0.05).
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(0, float64(count))
	power := math.Floor(math.Log10(step))
	factor := stepFactor(step / math.Pow(10, power))
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

func nice(start, stop float64, count int) (float64, float64) {
	var prestep float64
	for {
		step := tickIncrement(start, stop, count)
		if step == prestep || step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
			return start, stop
		}
		if step > 0 {
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		} else {
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		}
		prestep = step
	}
}

func ticks(start, stop float64, count int) []float64 {
	if count <= 0 || stop < start || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}

	step := (stop - start) / float64(count)
	power := math.Floor(math.Log10(step))
	factor := stepFactor(step / math.Pow(10, power))

	var out []float64
	if power < 0 {
		inv := math.Pow(10, -power) / factor
		i1, i2 := math.Round(start*inv), math.Round(stop*inv)
		if i1/inv < start {
			i1++
		}
		if i2/inv > stop {
			i2--
		}
		for i := i1; i <= i2; i++ {
			out = append(out, i/inv)
		}
		return out
	}

	inc := math.Pow(10, power) * factor
	i1, i2 := math.Round(start/inc), math.Round(stop/inc)
	if i1*inc < start {
		i1++
	}
	if i2*inc > stop {
		i2--
	}
	for i := i1; i <= i2; i++ {
		out = append(out, i*inc)
	}
	return out
}
