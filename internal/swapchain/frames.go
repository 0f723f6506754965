package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// MaxFramesInFlight is the size of the frame ring. It does not depend on the
// number of swapchain images.
const MaxFramesInFlight = 2

// Result is the recoverable outcome of an acquire or present.
type Result int

const (
	ResultSuccess Result = iota
	// ResultSuboptimal means the chain still works but no longer matches the
	// surface exactly.
	ResultSuboptimal
	// ResultOutOfDate means the chain can no longer be presented to.
	ResultOutOfDate
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultSuboptimal:
		return "suboptimal"
	case ResultOutOfDate:
		return "out of date"
	}
	return "unknown"
}

type State int

const (
	StateReady State = iota
	// StateStale swapchains must be replaced before the next frame.
	StateStale
)

func (s State) String() string {
	if s == StateStale {
		return "stale"
	}
	return "ready"
}

// presentEngine is the part of the graphics API the frame protocol talks to.
type presentEngine interface {
	waitForFence(fence core1_0.Fence) error
	resetFence(fence core1_0.Fence) error
	acquireNextImage(signal core1_0.Semaphore) (int, Result, error)
	submit(buffer core1_0.CommandBuffer, wait, signal core1_0.Semaphore, fence core1_0.Fence) error
	present(wait core1_0.Semaphore, imageIndex int) (Result, error)
}

// frameSync is the frame ring plus the image to fence mapping.
type frameSync struct {
	engine presentEngine

	imageAvailable []core1_0.Semaphore
	renderFinished []core1_0.Semaphore
	inFlight       []core1_0.Fence

	// imagesInFlight holds, per swapchain image, the ring fence of the last
	// submission that rendered to it, or nil.
	imagesInFlight []core1_0.Fence

	current int
	state   State
}

func newFrameSync(engine presentEngine, imageCount int) *frameSync {
	return &frameSync{
		engine:         engine,
		imagesInFlight: make([]core1_0.Fence, imageCount),
	}
}

func (f *frameSync) acquire() (int, Result, error) {
	err := f.engine.waitForFence(f.inFlight[f.current])
	if err != nil {
		return 0, ResultSuccess, err
	}

	imageIndex, res, err := f.engine.acquireNextImage(f.imageAvailable[f.current])
	if err != nil {
		return 0, res, err
	}
	if res != ResultSuccess {
		f.state = StateStale
	}

	return imageIndex, res, nil
}

func (f *frameSync) submit(buffer core1_0.CommandBuffer, imageIndex int) (Result, error) {
	if imageIndex < 0 || imageIndex >= len(f.imagesInFlight) {
		return ResultSuccess, errors.AssertionFailedf("image index %d out of range [0, %d)", imageIndex, len(f.imagesInFlight))
	}

	if f.imagesInFlight[imageIndex] != nil {
		err := f.engine.waitForFence(f.imagesInFlight[imageIndex])
		if err != nil {
			return ResultSuccess, err
		}
	}
	f.imagesInFlight[imageIndex] = f.inFlight[f.current]

	err := f.engine.resetFence(f.inFlight[f.current])
	if err != nil {
		return ResultSuccess, err
	}

	err = f.engine.submit(buffer, f.imageAvailable[f.current], f.renderFinished[f.current], f.inFlight[f.current])
	if err != nil {
		return ResultSuccess, err
	}

	res, err := f.engine.present(f.renderFinished[f.current], imageIndex)

	f.current = (f.current + 1) % MaxFramesInFlight

	if err != nil {
		return res, err
	}
	if res != ResultSuccess {
		f.state = StateStale
	}
	return res, nil
}
