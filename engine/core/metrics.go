package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// MetricsState accumulates per-frame timings sampled by the statistics
// overlay: CPU scene update time, CPU draw time and the GPU draw time
// reported by the context's timer queries.
type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64

	CPUUpdateTime time.Duration
	CPUDrawTime   time.Duration
	GPUDrawTime   time.Duration
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{
			MStimes: [AVG_COUNT]float64{0},
		}
	})
	return nil
}

func MetricsUpdate(frameElapsed time.Duration) {
	// Calculate frame ms average
	frameMS := float64(frameElapsed) / float64(time.Millisecond)
	metricsState.MStimes[metricsState.FrameAVGCounter] = frameMS
	if metricsState.FrameAVGCounter == AVG_COUNT-1 {
		for i := uint8(0); i < AVG_COUNT; i++ {
			metricsState.MSavg += metricsState.MStimes[i]
		}
		metricsState.MSavg /= float64(AVG_COUNT)
	}
	metricsState.FrameAVGCounter++
	metricsState.FrameAVGCounter %= AVG_COUNT

	// Calculate frames per second.
	metricsState.AccumulatedFrameMS += frameMS
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}

	// Count all frames.
	metricsState.Frames++
}

func MetricsSampleDrawTimes(cpuUpdate, cpuDraw, gpuDraw time.Duration) {
	metricsState.CPUUpdateTime = cpuUpdate
	metricsState.CPUDrawTime = cpuDraw
	metricsState.GPUDrawTime = gpuDraw
}

func MetricsFPS() float64 {
	return metricsState.FPS
}

func MetricsFrameTime() float64 {
	return metricsState.MSavg
}

func MetricsDrawTimes() (cpuUpdate, cpuDraw, gpuDraw time.Duration) {
	return metricsState.CPUUpdateTime, metricsState.CPUDrawTime, metricsState.GPUDrawTime
}
