package graph

import "math"

// VU is a level meter with instant attack and exponential release. In peak
// mode it follows absolute sample values, otherwise squared values.
type VU struct {
	peak       bool
	falloff    float64
	sampleRate int
	coeff      float64
	current    float64
}

// NewVU returns a follower that releases to 1% of the level in falloff
// milliseconds.
func NewVU(falloff float64, sampleRate int, peak bool) *VU {
	v := VU{
		peak:       peak,
		falloff:    falloff,
		sampleRate: sampleRate,
	}
	v.coeff = releaseCoeff(falloff, sampleRate)
	return &v
}

// releaseCoeff returns zero when release can't be computed, so the
// follower drops instantly.
func releaseCoeff(falloff float64, sampleRate int) float64 {
	samples := falloff * float64(sampleRate) * 0.001
	if samples <= 0 {
		return 0
	}
	return math.Exp(math.Log(0.01) / samples)
}

// Tick feeds next sample and returns the level.
func (v *VU) Tick(x float64) float64 {
	var n float64
	if v.peak {
		n = math.Abs(x)
	} else {
		n = x * x
	}
	if n >= v.current {
		v.current = n
	} else {
		v.current = n + v.coeff*(v.current-n)
	}
	return v.current
}

// Value returns current level.
func (v *VU) Value() float64 {
	return v.current
}

// Coeff returns release coefficient.
func (v *VU) Coeff() float64 {
	return v.coeff
}

// SetFalloff updates release time in milliseconds.
func (v *VU) SetFalloff(falloff float64) {
	if falloff == v.falloff {
		return
	}
	v.falloff = falloff
	v.coeff = releaseCoeff(v.falloff, v.sampleRate)
}

// SetSampleRate updates sample rate.
func (v *VU) SetSampleRate(sampleRate int) {
	if sampleRate == v.sampleRate {
		return
	}
	v.sampleRate = sampleRate
	v.coeff = releaseCoeff(v.falloff, v.sampleRate)
}

// SetPeak switches between peak and RMS modes.
func (v *VU) SetPeak(peak bool) {
	v.peak = peak
}

// Reset drops the level to zero.
func (v *VU) Reset() {
	v.current = 0
}
