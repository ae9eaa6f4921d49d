// Package peaks provides the multi-resolution waveform summary used to draw
// sources at any zoom level.
//
// A Cache holds a set of levels, from the finest to the coarsest. Each level
// stores a {min, max} pair per channel for every Division frames of the
// source. The cache is allocated in full once and then filled append-only,
// bucket by bucket, by a Builder running in its own goroutine. Readers never
// lock: buckets below Level.Written are final, the bucket being written might
// be observed in an intermediate state. This allows to draw an increasingly
// accurate waveform while the source is still being scanned.
package peaks

import (
	"sync/atomic"

	"pipelined.dev/render/signal"
)

// Cache is a multi-resolution min/max summary of a whole source. The zero
// value is an invalid cache, Allocate must be called before use.
type Cache struct {
	levels     []*Level
	channels   int
	sampleRate int
	frames     int

	consumed atomic.Int64
}

// New returns a cache allocated with provided parameters. Result must be
// checked with Valid.
func New(levels, channels, sampleRate, totalFrames int) *Cache {
	var c Cache
	c.Allocate(levels, channels, sampleRate, totalFrames)
	return &c
}

// Division returns the number of frames summarized by a single sample of
// level i for the sample rate. It's never less than 1.
func Division(level, sampleRate int) int {
	var d int
	switch level {
	case 0:
		d = sampleRate / 300
	case 1:
		d = sampleRate / 20
	case 2:
		d = sampleRate
	default:
		d = sampleRate * level * 20
	}
	if d < 1 {
		return 1
	}
	return d
}

// Allocate computes level dimensions and allocates zeroed storage. Invalid
// parameters leave the cache untouched. Allocate must not be called while
// a builder is filling the cache.
func (c *Cache) Allocate(levels, channels, sampleRate, totalFrames int) {
	if levels <= 0 || channels <= 0 || sampleRate <= 0 || totalFrames <= 0 {
		return
	}
	ls := make([]*Level, levels)
	for i := range ls {
		d := Division(i, sampleRate)
		ls[i] = newLevel(d, (totalFrames+d-1)/d, channels)
	}
	c.levels = ls
	c.channels = channels
	c.sampleRate = sampleRate
	c.frames = totalFrames
	c.consumed.Store(0)
}

// Valid returns true if cache was successfully allocated.
func (c *Cache) Valid() bool {
	return c.channels > 0 && c.sampleRate > 0 && len(c.levels) > 0 && c.frames > 0
}

// Levels returns number of levels.
func (c *Cache) Levels() int {
	return len(c.levels)
}

// Level returns level i, 0 is the finest.
func (c *Cache) Level(i int) *Level {
	return c.levels[i]
}

// Channels returns number of channels.
func (c *Cache) Channels() int {
	return c.channels
}

// SampleRate returns sample rate of the source.
func (c *Cache) SampleRate() int {
	return c.sampleRate
}

// Frames returns total number of frames in the source.
func (c *Cache) Frames() int {
	return c.frames
}

// Consumed returns the number of source frames added so far.
func (c *Cache) Consumed() int {
	return int(c.consumed.Load())
}

// Complete returns true when every frame of the source was added.
func (c *Cache) Complete() bool {
	return c.Valid() && c.Consumed() >= c.frames
}

// LevelFor returns the coarsest level whose samples summarize no more than
// framesPerPixel frames. The finest level is returned if none fits.
func (c *Cache) LevelFor(framesPerPixel float64) int {
	best := 0
	for i, l := range c.levels {
		if float64(l.division) <= framesPerPixel {
			best = i
		}
	}
	return best
}

// AddSamples accumulates first count frames of buf into every level. Only
// a single goroutine may add samples.
func (c *Cache) AddSamples(count int, buf *signal.Buffer) {
	if !c.Valid() || count <= 0 {
		return
	}
	if count > buf.Frames() {
		count = buf.Frames()
	}
	channels := c.channels
	if buf.Channels() < channels {
		channels = buf.Channels()
	}
	for _, l := range c.levels {
		l.add(count, channels, buf)
	}
	if consumed := c.consumed.Add(int64(count)); consumed >= int64(c.frames) {
		for _, l := range c.levels {
			l.complete()
		}
	}
}
