package graph

import (
	"math"
	"sync/atomic"

	"pipelined.dev/render/signal"
)

// Output node parameters.
const (
	// Gain is multiplied by two, so 0.5 is unity gain.
	Gain = iota
	// Pan is a linear balance, 0.5 is centre.
	Pan
	// Mute silences the output when it's 0.5 or more.
	Mute
)

// DefaultFalloff is VU release time in milliseconds.
const DefaultFalloff = 300

// Output applies master gain, pan and mute and meters the result.
type Output struct {
	base
	followers []VU
	// levels are published VU values per channel.
	levels  []atomic.Uint64
	falloff atomic.Uint64
	peak    atomic.Bool
	clipped atomic.Bool
}

// NewOutput returns output node metering provided number of channels.
func NewOutput(channels int) *Output {
	o := Output{
		followers: make([]VU, channels),
		levels:    make([]atomic.Uint64, channels),
	}
	o.init([]string{"gain", "pan", "mute"}, []float64{0.5, 0.5, 0})
	o.falloff.Store(math.Float64bits(DefaultFalloff))
	o.peak.Store(true)
	for i := range o.followers {
		o.followers[i].peak = true
		o.followers[i].falloff = DefaultFalloff
	}
	return &o
}

// Channels returns number of metered channels.
func (o *Output) Channels() int {
	return len(o.levels)
}

// SetFalloff sets VU release time in milliseconds.
func (o *Output) SetFalloff(falloff float64) {
	o.falloff.Store(math.Float64bits(falloff))
}

// SetPeakMode switches VU between peak and RMS modes.
func (o *Output) SetPeakMode(peak bool) {
	o.peak.Store(peak)
}

// VU returns the last published level of the channel.
func (o *Output) VU(channel int) float64 {
	return math.Float64frombits(o.levels[channel].Load())
}

// Clipped returns true if any sample exceeded full scale since the last
// reset.
func (o *Output) Clipped() bool {
	return o.clipped.Load()
}

// ResetClip clears the clip indicator.
func (o *Output) ResetClip() {
	o.clipped.Store(false)
}

// Process applies mute, gain and pan to the block and feeds the meters.
func (o *Output) Process(_, out *signal.Buffer, frames int, _ float64) {
	muted := o.Parameter(Mute) >= 0.5
	gain := o.Parameter(Gain) * 2
	left, right := balance(o.Parameter(Pan))
	falloff := math.Float64frombits(o.falloff.Load())
	sampleRate := o.SampleRate()
	peak := o.peak.Load()

	clipped := false
	for ch := 0; ch < out.Channels(); ch++ {
		g := gain
		if out.Channels() > 1 {
			switch ch {
			case 0:
				g *= left
			case 1:
				g *= right
			}
		}
		if muted {
			g = 0
		}
		data := out.Channel(ch)[:frames]
		for i := range data {
			data[i] *= g
			if math.Abs(data[i]) > 1 {
				clipped = true
			}
		}
		if ch >= len(o.followers) {
			continue
		}
		vu := &o.followers[ch]
		vu.SetPeak(peak)
		vu.SetFalloff(falloff)
		vu.SetSampleRate(sampleRate)
		for _, x := range data {
			vu.Tick(x)
		}
		o.levels[ch].Store(math.Float64bits(vu.Value()))
	}
	if clipped {
		o.clipped.Store(true)
	}
}

// balance returns left and right multipliers for the pan value.
func balance(pan float64) (float64, float64) {
	switch {
	case pan < 0.5:
		return 1, math.Max(pan*2, 0)
	case pan > 0.5:
		return math.Max((1-pan)*2, 0), 1
	default:
		return 1, 1
	}
}
