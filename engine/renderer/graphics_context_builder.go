package renderer

// GraphicsContextOption is a functional option applied to the graphics context configuration
// during NewGraphicsContext.
type GraphicsContextOption func(*graphicsContextConfig)

type graphicsContextConfig struct {
	presentMode          PresentMode
	sampleCount          MSAASampleCount
	forceFallbackAdapter bool
}

func defaultGraphicsContextConfig() graphicsContextConfig {
	return graphicsContextConfig{
		presentMode: PresentModeVSync,
		sampleCount: MSAAOff,
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the
// display. Modes the surface does not support fall back to VSync.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - GraphicsContextOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) GraphicsContextOption {
	return func(c *graphicsContextConfig) {
		c.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count of the render target. Pipelines
// built by the Renderer use the same count.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - GraphicsContextOption: a function that applies the MSAA option
func WithMSAA(count MSAASampleCount) GraphicsContextOption {
	return func(c *graphicsContextConfig) {
		c.sampleCount = count
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - GraphicsContextOption: a function that applies the fallback adapter option
func WithForceFallbackAdapter(force bool) GraphicsContextOption {
	return func(c *graphicsContextConfig) {
		c.forceFallbackAdapter = force
	}
}
