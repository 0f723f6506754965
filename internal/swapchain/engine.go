package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// vkPresentEngine drives the frame protocol against a real device.
type vkPresentEngine struct {
	device    core1_0.Device
	extension khr_swapchain.Extension
	swapchain khr_swapchain.Swapchain

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue
}

// recoverable maps the result codes the frame loop can recover from. Any
// other code is left to the accompanying error.
func recoverable(res common.VkResult) (Result, bool) {
	switch res {
	case core1_0.VKSuccess:
		return ResultSuccess, true
	case khr_swapchain.VKSuboptimal:
		return ResultSuboptimal, true
	case khr_swapchain.VKErrorOutOfDate:
		return ResultOutOfDate, true
	}
	return ResultSuccess, false
}

func (e *vkPresentEngine) waitForFence(fence core1_0.Fence) error {
	_, err := e.device.WaitForFences(true, common.NoTimeout, []core1_0.Fence{fence})
	if err != nil {
		return errors.Wrap(err, "failed to wait for fence")
	}
	return nil
}

func (e *vkPresentEngine) resetFence(fence core1_0.Fence) error {
	_, err := e.device.ResetFences([]core1_0.Fence{fence})
	if err != nil {
		return errors.Wrap(err, "failed to reset fence")
	}
	return nil
}

func (e *vkPresentEngine) acquireNextImage(signal core1_0.Semaphore) (int, Result, error) {
	imageIndex, res, err := e.swapchain.AcquireNextImage(common.NoTimeout, signal, nil)
	if result, ok := recoverable(res); ok {
		return imageIndex, result, nil
	}
	if err == nil {
		err = errors.Newf("unexpected result %v", res)
	}
	return 0, ResultSuccess, errors.Wrap(err, "failed to acquire swap chain image")
}

func (e *vkPresentEngine) submit(buffer core1_0.CommandBuffer, wait, signal core1_0.Semaphore, fence core1_0.Fence) error {
	_, err := e.graphicsQueue.Submit(fence, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{wait},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{buffer},
			SignalSemaphores: []core1_0.Semaphore{signal},
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to submit draw command buffer")
	}
	return nil
}

func (e *vkPresentEngine) present(wait core1_0.Semaphore, imageIndex int) (Result, error) {
	res, err := e.extension.QueuePresent(e.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait},
		Swapchains:     []khr_swapchain.Swapchain{e.swapchain},
		ImageIndices:   []int{imageIndex},
	})
	if result, ok := recoverable(res); ok {
		return result, nil
	}
	if err == nil {
		err = errors.Newf("unexpected result %v", res)
	}
	return ResultSuccess, errors.Wrap(err, "failed to present swap chain image")
}
