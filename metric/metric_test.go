package metric_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/render/metric"
)

type (
	meteredA struct{}
	meteredB struct{}
)

func TestMeter(t *testing.T) {
	const sampleRate = 44100
	tests := []struct {
		component          interface{}
		routines           int
		blocks             int
		blockSize          int
		expectedBlocks     string
		expectedFrames     string
		expectedComponents string
	}{
		{
			component:          meteredA{},
			routines:           2,
			blocks:             10,
			blockSize:          100,
			expectedBlocks:     "20",
			expectedFrames:     "2000",
			expectedComponents: "2",
		},
		{
			component:          &meteredB{},
			routines:           3,
			blocks:             5,
			blockSize:          441,
			expectedBlocks:     "15",
			expectedFrames:     "6615",
			expectedComponents: "3",
		},
	}
	measure := func(fn metric.MeasureFunc, wg *sync.WaitGroup, blocks, blockSize int) {
		defer wg.Done()
		for i := 0; i < blocks; i++ {
			fn(blockSize, time.Now())
		}
	}

	for _, test := range tests {
		var wg sync.WaitGroup
		wg.Add(test.routines)
		for i := 0; i < test.routines; i++ {
			go measure(metric.Meter(test.component)(sampleRate), &wg, test.blocks, test.blockSize)
		}
		wg.Wait()
		values := metric.Get(test.component)
		assert.Equal(t, test.expectedBlocks, values[metric.BlockCounter])
		assert.Equal(t, test.expectedFrames, values[metric.FrameCounter])
		assert.Equal(t, test.expectedComponents, values[metric.ComponentCounter])
		assert.Contains(t, values, metric.LoadCounter)
	}

	all := metric.GetAll()
	assert.Contains(t, all, "metric_test.meteredA")
	assert.Contains(t, all, "metric_test.meteredB")
}

func TestMeterDuration(t *testing.T) {
	type meteredC struct{}
	measure := metric.Meter(meteredC{})(1000)
	for i := 0; i < 4; i++ {
		measure(250, time.Now())
	}
	assert.Equal(t, `"1s"`, metric.Get(meteredC{})[metric.DurationCounter])
}
