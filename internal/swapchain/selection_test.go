package swapchain

import (
	"testing"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

func TestChooseImageCount(t *testing.T) {
	cases := []struct {
		min, max int
		want     int
	}{
		{2, 0, 3},
		{2, 2, 2},
		{2, 8, 3},
		{1, 3, 2},
		{3, 3, 3},
	}
	for _, c := range cases {
		caps := &khr_surface.SurfaceCapabilities{MinImageCount: c.min, MaxImageCount: c.max}
		if have := ChooseImageCount(caps); have != c.want {
			t.Fatalf("ChooseImageCount(min=%d, max=%d)\nhave %d\nwant %d", c.min, c.max, have, c.want)
		}
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	rgba := khr_surface.SurfaceFormat{
		Format:     core1_0.FormatR8G8B8A8UnsignedNormalized,
		ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
	}

	have := ChooseSurfaceFormat([]khr_surface.SurfaceFormat{rgba, PreferredFormat})
	if have != PreferredFormat {
		t.Fatalf("ChooseSurfaceFormat with preferred offered\nhave %v\nwant %v", have, PreferredFormat)
	}

	have = ChooseSurfaceFormat([]khr_surface.SurfaceFormat{rgba})
	if have != rgba {
		t.Fatalf("ChooseSurfaceFormat fallback\nhave %v\nwant %v", have, rgba)
	}

	srgb := khr_surface.SurfaceFormat{
		Format:     core1_0.FormatB8G8R8A8SRGB,
		ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
	}
	have = ChooseSurfaceFormat([]khr_surface.SurfaceFormat{srgb, rgba})
	if have != srgb {
		t.Fatalf("ChooseSurfaceFormat takes first when preferred is missing\nhave %v\nwant %v", have, srgb)
	}
}

func TestChoosePresentMode(t *testing.T) {
	modes := []khr_surface.PresentMode{khr_surface.PresentModeMailbox, khr_surface.PresentModeFIFO}
	if have := ChoosePresentMode(modes); have != khr_surface.PresentModeFIFO {
		t.Fatalf("ChoosePresentMode\nhave %v\nwant %v", have, khr_surface.PresentModeFIFO)
	}
}

func TestChooseExtent(t *testing.T) {
	bounded := func(current core1_0.Extent2D) *khr_surface.SurfaceCapabilities {
		return &khr_surface.SurfaceCapabilities{
			CurrentExtent:  current,
			MinImageExtent: core1_0.Extent2D{Width: 100, Height: 100},
			MaxImageExtent: core1_0.Extent2D{Width: 800, Height: 800},
		}
	}
	window := core1_0.Extent2D{Width: 50, Height: 900}
	want := core1_0.Extent2D{Width: 100, Height: 800}

	for _, sentinel := range []int{-1, 0xFFFFFFFF} {
		caps := bounded(core1_0.Extent2D{Width: sentinel, Height: sentinel})
		if have := ChooseExtent(caps, window); have != want {
			t.Fatalf("ChooseExtent with sentinel %d\nhave %v\nwant %v", sentinel, have, want)
		}
	}

	inside := core1_0.Extent2D{Width: 640, Height: 480}
	if have := ChooseExtent(bounded(core1_0.Extent2D{Width: -1, Height: -1}), inside); have != inside {
		t.Fatalf("ChooseExtent inside bounds\nhave %v\nwant %v", have, inside)
	}

	mandated := core1_0.Extent2D{Width: 1280, Height: 720}
	if have := ChooseExtent(bounded(mandated), window); have != mandated {
		t.Fatalf("ChooseExtent with surface extent\nhave %v\nwant %v", have, mandated)
	}
}
