//go:build cgo || !linux

package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// otoOutput plays through the system mixer via oto. The player pulls
// interleaved stereo float32 from the engine through the io.Reader it is
// handed.
type otoOutput struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool
}

func newOtoOutput(e *Engine) (*otoOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   e.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	return &otoOutput{
		ctx:    ctx,
		player: ctx.NewPlayer(&engineReader{engine: e}),
	}, nil
}

func (o *otoOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		o.player.Play()
		o.started = true
	}
	return nil
}

func (o *otoOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		o.player.Pause()
		o.started = false
	}
	return nil
}

func (o *otoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = false
	return o.player.Close()
}

// engineReader adapts Engine.Render to the io.Reader oto pulls from.
type engineReader struct {
	engine  *Engine
	scratch []float32
}

func (r *engineReader) Read(p []byte) (int, error) {
	// 4 bytes per float32 sample, stereo interleaved.
	samples := len(p) / 4
	samples -= samples % 2
	if samples == 0 {
		return 0, nil
	}

	if cap(r.scratch) < samples {
		r.scratch = make([]float32, samples)
	}
	buf := r.scratch[:samples]
	r.engine.Render(buf)

	for i, s := range buf {
		bits := math.Float32bits(s)
		p[i*4] = byte(bits)
		p[i*4+1] = byte(bits >> 8)
		p[i*4+2] = byte(bits >> 16)
		p[i*4+3] = byte(bits >> 24)
	}
	return samples * 4, nil
}
