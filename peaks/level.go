package peaks

import (
	"math"
	"sync/atomic"

	"pipelined.dev/render/signal"
)

// Sample summarizes one interval of frames.
type Sample struct {
	Min float32
	Max float32
}

// Level is a single resolution tier of the cache. Every stored sample
// summarizes Division frames of the source.
//
// Peak values are kept as float32 bits and accessed with atomic word
// operations: the builder writes them while readers draw. Buckets below
// Written are final, the bucket at Written may still change.
type Level struct {
	division int
	count    int
	// per channel, min and max bits of every bucket: [2*i] min, [2*i+1] max.
	data [][]uint32

	// write cursor, owned by the writer.
	bucket int
	fill   int

	written atomic.Int64
}

func newLevel(division, count, channels int) *Level {
	l := &Level{
		division: division,
		count:    count,
		data:     make([][]uint32, channels),
	}
	for ch := range l.data {
		l.data[ch] = make([]uint32, 2*count)
	}
	return l
}

// Division returns number of source frames summarized by one sample.
func (l *Level) Division() int {
	return l.division
}

// Len returns number of samples in the level.
func (l *Level) Len() int {
	return l.count
}

// Written returns number of final samples. Samples with lower index will
// not change anymore.
func (l *Level) Written() int {
	return int(l.written.Load())
}

// Peak returns the sample at index i of channel ch.
func (l *Level) Peak(ch, i int) Sample {
	d := l.data[ch]
	return Sample{
		Min: math.Float32frombits(atomic.LoadUint32(&d[2*i])),
		Max: math.Float32frombits(atomic.LoadUint32(&d[2*i+1])),
	}
}

// Range merges samples in [from, to) of channel ch into a single one. The
// range is clamped to the level bounds. Empty range returns zero sample.
func (l *Level) Range(ch, from, to int) Sample {
	if from < 0 {
		from = 0
	}
	if to > l.count {
		to = l.count
	}
	if from >= to {
		return Sample{}
	}
	s := l.Peak(ch, from)
	for i := from + 1; i < to; i++ {
		p := l.Peak(ch, i)
		if p.Min < s.Min {
			s.Min = p.Min
		}
		if p.Max > s.Max {
			s.Max = p.Max
		}
	}
	return s
}

// Peaks returns an iterator over all samples of channel ch.
func (l *Level) Peaks(ch int) *Iterator {
	if ch < 0 || ch >= len(l.data) {
		panic("peaks: channel index out of range")
	}
	return &Iterator{level: l, ch: ch}
}

func (l *Level) store(ch, bucket int, s Sample) {
	d := l.data[ch]
	atomic.StoreUint32(&d[2*bucket], math.Float32bits(s.Min))
	atomic.StoreUint32(&d[2*bucket+1], math.Float32bits(s.Max))
}

// add accumulates count frames of buf into the level. Bucket boundaries are
// independent of how frames are partitioned between calls.
func (l *Level) add(count, channels int, buf *signal.Buffer) {
	last := l.count - 1
	for pos := 0; pos < count; {
		span := count - pos
		if l.bucket < last && span > l.division-l.fill {
			span = l.division - l.fill
		}
		for ch := 0; ch < channels; ch++ {
			in := buf.Channel(ch)[pos : pos+span]
			mn, mx := in[0], in[0]
			for _, v := range in[1:] {
				if v < mn {
					mn = v
				} else if v > mx {
					mx = v
				}
			}
			s := Sample{Min: float32(mn), Max: float32(mx)}
			if l.fill > 0 {
				cur := l.Peak(ch, l.bucket)
				if cur.Min < s.Min {
					s.Min = cur.Min
				}
				if cur.Max > s.Max {
					s.Max = cur.Max
				}
			}
			l.store(ch, l.bucket, s)
		}
		pos += span
		l.fill += span
		// the last bucket absorbs any excess frames.
		if l.fill >= l.division && l.bucket < last {
			l.bucket++
			l.fill = 0
			l.written.Store(int64(l.bucket))
		}
	}
}

// complete marks all buckets final.
func (l *Level) complete() {
	l.written.Store(int64(l.count))
}

// Iterator is a finite restartable sequence of samples of a single channel.
// It reads current values, so samples at and above Level.Written might
// change between passes.
type Iterator struct {
	level *Level
	ch    int
	i     int
}

// Next returns the next sample. False is returned when the sequence is
// exhausted.
func (it *Iterator) Next() (Sample, bool) {
	if it.i >= it.level.count {
		return Sample{}, false
	}
	s := it.level.Peak(it.ch, it.i)
	it.i++
	return s, true
}

// Index returns the index of the sample that will be returned by Next.
func (it *Iterator) Index() int {
	return it.i
}

// Reset restarts the sequence from the first sample.
func (it *Iterator) Reset() {
	it.i = 0
}
