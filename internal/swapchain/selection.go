package swapchain

import (
	"math"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// PreferredFormat is picked whenever the surface offers it.
var PreferredFormat = khr_surface.SurfaceFormat{
	Format:     core1_0.FormatB8G8R8A8UnsignedNormalized,
	ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
}

// ChooseSurfaceFormat returns PreferredFormat if available, otherwise the
// first advertised format. available must not be empty.
func ChooseSurfaceFormat(available []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range available {
		if format.Format == PreferredFormat.Format && format.ColorSpace == PreferredFormat.ColorSpace {
			return format
		}
	}

	return available[0]
}

// ChoosePresentMode always returns FIFO, which every surface supports.
func ChoosePresentMode(available []khr_surface.PresentMode) khr_surface.PresentMode {
	return khr_surface.PresentModeFIFO
}

// isUndefinedExtent reports whether the surface lets the swapchain decide
// its extent. The sentinel is 0xFFFFFFFF, which some drivers surface as -1.
func isUndefinedExtent(extent core1_0.Extent2D) bool {
	return uint32(extent.Width) == math.MaxUint32
}

func ChooseExtent(capabilities *khr_surface.SurfaceCapabilities, windowExtent core1_0.Extent2D) core1_0.Extent2D {
	if !isUndefinedExtent(capabilities.CurrentExtent) {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(windowExtent.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(windowExtent.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, capped by the
// maximum. A maximum of zero means there is none.
func ChooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
