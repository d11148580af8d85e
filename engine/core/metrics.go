package core

import (
	"sync"

	"github.com/spaghettifunk/gef/engine/containers"
)

// FrameAverageCount is the number of frames averaged by FrameTime.
const FrameAverageCount = 30

/**
 * @brief Frame statistics: a rolling average of the frame time, the frames
 * completed over the last full second and the draws of the last frame.
 */
type Metrics struct {
	mu sync.Mutex

	frameMS            *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64

	totalFrames uint64
	lastDraws   uint32
}

func NewMetrics() *Metrics {
	return &Metrics{
		frameMS: containers.NewRingQueue[float64](FrameAverageCount),
	}
}

// Update records a finished frame that took frameSeconds and issued draws.
func (m *Metrics) Update(frameSeconds float64, draws uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameMS := frameSeconds * 1000.0
	m.frameMS.Push(frameMS)
	var sum float64
	for _, ms := range m.frameMS.Values() {
		sum += ms
	}
	m.msAvg = sum / float64(m.frameMS.Len())

	m.frames++
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	m.totalFrames++
	m.lastDraws = draws
}

func (m *Metrics) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps
}

// FrameTime returns the average frame time in milliseconds.
func (m *Metrics) FrameTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.msAvg
}

func (m *Metrics) Frames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalFrames
}

func (m *Metrics) LastDraws() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDraws
}
