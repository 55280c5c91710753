//go:build cgo

package engine

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// portAudioOutput plays through the default portaudio device using the
// callback API: portaudio calls back on its own realtime thread and the
// callback pulls a rendered block from the engine.
type portAudioOutput struct {
	stream  *portaudio.Stream
	scratch []float32

	mu      sync.Mutex
	started bool
}

func newPortAudioOutput(e *Engine) (*portAudioOutput, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	o := &portAudioOutput{}
	stream, err := portaudio.OpenDefaultStream(
		0, 2, // no input, stereo output
		float64(e.SampleRate()),
		portaudio.FramesPerBufferUnspecified,
		func(out [][]float32) {
			frames := len(out[0])
			if cap(o.scratch) < frames*2 {
				o.scratch = make([]float32, frames*2)
			}
			buf := o.scratch[:frames*2]
			e.Render(buf)
			for i := 0; i < frames; i++ {
				out[0][i] = buf[i*2]
				out[1][i] = buf[i*2+1]
			}
		},
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio stream: %w", err)
	}
	o.stream = stream
	return o, nil
}

func (o *portAudioOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return nil
	}
	if err := o.stream.Start(); err != nil {
		return fmt.Errorf("portaudio start: %w", err)
	}
	o.started = true
	return nil
}

func (o *portAudioOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		return nil
	}
	o.started = false
	if err := o.stream.Stop(); err != nil {
		return fmt.Errorf("portaudio stop: %w", err)
	}
	return nil
}

func (o *portAudioOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = false
	err := o.stream.Close()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
