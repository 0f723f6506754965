package swapchain

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

type testFence struct {
	core1_0.Fence
	name string
}

type testSemaphore struct {
	core1_0.Semaphore
	name string
}

type testCommandBuffer struct {
	core1_0.CommandBuffer
}

func fenceName(f core1_0.Fence) string {
	if f == nil {
		return "nil"
	}
	return f.(*testFence).name
}

func semaphoreName(s core1_0.Semaphore) string {
	return s.(*testSemaphore).name
}

// testEngine logs every call and hands out scripted results.
type testEngine struct {
	calls []string

	images     []int
	acquireRes []Result
	presentRes []Result
	acquireErr error
	presentErr error
}

func (e *testEngine) waitForFence(fence core1_0.Fence) error {
	e.calls = append(e.calls, "wait "+fenceName(fence))
	return nil
}

func (e *testEngine) resetFence(fence core1_0.Fence) error {
	e.calls = append(e.calls, "reset "+fenceName(fence))
	return nil
}

func (e *testEngine) acquireNextImage(signal core1_0.Semaphore) (int, Result, error) {
	e.calls = append(e.calls, "acquire "+semaphoreName(signal))
	if e.acquireErr != nil {
		return 0, ResultSuccess, e.acquireErr
	}

	index, res := e.images[0], ResultSuccess
	e.images = e.images[1:]
	if len(e.acquireRes) > 0 {
		res, e.acquireRes = e.acquireRes[0], e.acquireRes[1:]
	}
	return index, res, nil
}

func (e *testEngine) submit(buffer core1_0.CommandBuffer, wait, signal core1_0.Semaphore, fence core1_0.Fence) error {
	e.calls = append(e.calls, fmt.Sprintf("submit %s %s %s", semaphoreName(wait), semaphoreName(signal), fenceName(fence)))
	return nil
}

func (e *testEngine) present(wait core1_0.Semaphore, imageIndex int) (Result, error) {
	e.calls = append(e.calls, fmt.Sprintf("present %s %d", semaphoreName(wait), imageIndex))
	if e.presentErr != nil {
		return ResultSuccess, e.presentErr
	}

	res := ResultSuccess
	if len(e.presentRes) > 0 {
		res, e.presentRes = e.presentRes[0], e.presentRes[1:]
	}
	return res, nil
}

func newTestSync(engine *testEngine, imageCount int) *frameSync {
	f := newFrameSync(engine, imageCount)
	for i := 0; i < MaxFramesInFlight; i++ {
		f.imageAvailable = append(f.imageAvailable, &testSemaphore{name: fmt.Sprintf("available%d", i)})
		f.renderFinished = append(f.renderFinished, &testSemaphore{name: fmt.Sprintf("finished%d", i)})
		f.inFlight = append(f.inFlight, &testFence{name: fmt.Sprintf("fence%d", i)})
	}
	return f
}

func drawFrames(t *testing.T, f *frameSync, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		imageIndex, res, err := f.acquire()
		if err != nil || res != ResultSuccess {
			t.Fatalf("frame %d: acquire: %v %v", i, res, err)
		}
		res, err = f.submit(&testCommandBuffer{}, imageIndex)
		if err != nil || res != ResultSuccess {
			t.Fatalf("frame %d: submit: %v %v", i, res, err)
		}
	}
}

func TestFrameRingAdvances(t *testing.T) {
	for k := 0; k <= 7; k++ {
		engine := &testEngine{}
		for i := 0; i < k; i++ {
			engine.images = append(engine.images, i%3)
		}
		f := newTestSync(engine, 3)

		drawFrames(t, f, k)
		if have, want := f.current, k%MaxFramesInFlight; have != want {
			t.Fatalf("after %d frames: current\nhave %d\nwant %d", k, have, want)
		}
		if f.state != StateReady {
			t.Fatalf("after %d frames: state\nhave %v\nwant %v", k, f.state, StateReady)
		}
	}
}

func TestFrameProtocolOrder(t *testing.T) {
	engine := &testEngine{images: []int{0, 1, 2, 0}}
	f := newTestSync(engine, 3)

	drawFrames(t, f, 4)

	want := []string{
		"wait fence0",
		"acquire available0",
		"reset fence0",
		"submit available0 finished0 fence0",
		"present finished0 0",

		"wait fence1",
		"acquire available1",
		"reset fence1",
		"submit available1 finished1 fence1",
		"present finished1 1",

		"wait fence0",
		"acquire available0",
		"reset fence0",
		"submit available0 finished0 fence0",
		"present finished0 2",

		// Image 0 was last rendered by fence0, so wait on it before reuse.
		"wait fence1",
		"acquire available1",
		"wait fence0",
		"reset fence1",
		"submit available1 finished1 fence1",
		"present finished1 0",
	}
	if !reflect.DeepEqual(engine.calls, want) {
		t.Fatalf("call order\nhave %q\nwant %q", engine.calls, want)
	}

	wantImages := []string{"fence1", "fence1", "fence0"}
	for i, fence := range f.imagesInFlight {
		if have := fenceName(fence); have != wantImages[i] {
			t.Fatalf("imagesInFlight[%d]\nhave %s\nwant %s", i, have, wantImages[i])
		}
	}
}

func TestImageFenceMappingStartsEmpty(t *testing.T) {
	f := newTestSync(&testEngine{}, 4)
	if len(f.imagesInFlight) != 4 {
		t.Fatalf("len(imagesInFlight)\nhave %d\nwant 4", len(f.imagesInFlight))
	}
	for i, fence := range f.imagesInFlight {
		if fence != nil {
			t.Fatalf("imagesInFlight[%d]\nhave %s\nwant nil", i, fenceName(fence))
		}
	}
}

func TestAcquireOutOfDate(t *testing.T) {
	engine := &testEngine{images: []int{0}, acquireRes: []Result{ResultOutOfDate}}
	f := newTestSync(engine, 2)

	_, res, err := f.acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if res != ResultOutOfDate {
		t.Fatalf("acquire result\nhave %v\nwant %v", res, ResultOutOfDate)
	}
	if f.state != StateStale {
		t.Fatalf("state\nhave %v\nwant %v", f.state, StateStale)
	}
	if f.current != 0 {
		t.Fatalf("current advanced on aborted frame: %d", f.current)
	}
	if want := []string{"wait fence0", "acquire available0"}; !reflect.DeepEqual(engine.calls, want) {
		t.Fatalf("calls\nhave %q\nwant %q", engine.calls, want)
	}
}

func TestPresentSuboptimal(t *testing.T) {
	for _, want := range []Result{ResultSuboptimal, ResultOutOfDate} {
		engine := &testEngine{images: []int{1}, presentRes: []Result{want}}
		f := newTestSync(engine, 2)

		imageIndex, _, err := f.acquire()
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		res, err := f.submit(&testCommandBuffer{}, imageIndex)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if res != want {
			t.Fatalf("submit result\nhave %v\nwant %v", res, want)
		}
		if f.state != StateStale {
			t.Fatalf("state after %v\nhave %v\nwant %v", want, f.state, StateStale)
		}
		if f.current != 1 {
			t.Fatalf("current after %v\nhave %d\nwant 1", want, f.current)
		}
	}
}

func TestFrameErrors(t *testing.T) {
	boom := errors.New("device lost")

	f := newTestSync(&testEngine{acquireErr: boom}, 2)
	if _, _, err := f.acquire(); !errors.Is(err, boom) {
		t.Fatalf("acquire error\nhave %v\nwant %v", err, boom)
	}

	f = newTestSync(&testEngine{images: []int{0}, presentErr: boom}, 2)
	imageIndex, _, err := f.acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := f.submit(&testCommandBuffer{}, imageIndex); !errors.Is(err, boom) {
		t.Fatalf("present error\nhave %v\nwant %v", err, boom)
	}

	f = newTestSync(&testEngine{}, 2)
	if _, err := f.submit(&testCommandBuffer{}, 2); err == nil {
		t.Fatal("submit with image index out of range: want error")
	}
}

func TestCheckInvariants(t *testing.T) {
	newChain := func(images, framebuffers int) *Swapchain {
		s := &Swapchain{
			images:            make([]core1_0.Image, images),
			imageViews:        make([]core1_0.ImageView, images),
			depthImages:       make([]core1_0.Image, images),
			depthImageMemorys: make([]core1_0.DeviceMemory, images),
			depthImageViews:   make([]core1_0.ImageView, images),
			framebuffers:      make([]core1_0.Framebuffer, framebuffers),
		}
		s.sync = newTestSync(&testEngine{}, images)
		return s
	}

	for _, images := range []int{2, 3, 4} {
		if err := newChain(images, images).checkInvariants(); err != nil {
			t.Fatalf("%d images: %v", images, err)
		}
	}

	if err := newChain(3, 2).checkInvariants(); err == nil {
		t.Fatal("framebuffer count mismatch: want error")
	}

	s := newChain(3, 3)
	s.sync.inFlight = s.sync.inFlight[:1]
	if err := s.checkInvariants(); err == nil {
		t.Fatal("incomplete frame ring: want error")
	}
}

func TestCompareFormats(t *testing.T) {
	a := &Swapchain{imageFormat: core1_0.FormatB8G8R8A8UnsignedNormalized, depthFormat: core1_0.FormatD32SignedFloat}
	b := &Swapchain{imageFormat: core1_0.FormatB8G8R8A8UnsignedNormalized, depthFormat: core1_0.FormatD32SignedFloat}
	c := &Swapchain{imageFormat: core1_0.FormatB8G8R8A8UnsignedNormalized, depthFormat: core1_0.FormatD24UnsignedNormalizedS8UnsignedInt}

	if !a.CompareFormats(b) {
		t.Fatal("CompareFormats with equal formats: have false")
	}
	if a.CompareFormats(c) {
		t.Fatal("CompareFormats with different depth formats: have true")
	}
}
