package engine

import (
	"sync"
	"time"
)

// pumpBlock is the render quantum of the headless pump, in frames.
const pumpBlock = 512

// pumpOutput renders at wall-clock rate without touching an audio device.
// It keeps taps and bus recorders fed in environments with no sound hardware
// (CI, tests, --output none).
type pumpOutput struct {
	engine *Engine

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func newPumpOutput(e *Engine) *pumpOutput {
	return &pumpOutput{engine: e}
}

func (o *pumpOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop != nil {
		return nil
	}
	o.stop = make(chan struct{})
	o.done = make(chan struct{})

	interval := time.Duration(float64(pumpBlock) / float64(o.engine.SampleRate()) * float64(time.Second))
	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		buf := make([]float32, pumpBlock*2)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				o.engine.Render(buf)
			}
		}
	}(o.stop, o.done)
	return nil
}

func (o *pumpOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop == nil {
		return nil
	}
	close(o.stop)
	<-o.done
	o.stop = nil
	o.done = nil
	return nil
}

func (o *pumpOutput) Close() error {
	return o.Stop()
}
