package window

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultTitle is the title used when WithTitle is not given.
const DefaultTitle = "Voxels wgpu"

// ErrNotInitialized is returned by operations on a window whose platform window does not exist.
var ErrNotInitialized = errors.New("window is not initialized")

// Window is the native window the renderer presents into. It owns the platform window and
// dispatches resize, close and key events to the registered callbacks while PollEvents runs.
//
// A Window must be created, polled and closed on the thread that called NewWindow.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetCloseCallback sets the function called when the user requests the window to close.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetCloseCallback(callback func())

	// SetKeyDownCallback sets the callback for key press events. Escape always requests close.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode int))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for creating a WebGPU surface on this window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// PollEvents processes pending window events without blocking, invoking callbacks.
	//
	// Returns:
	//   - bool: true while the window is running
	PollEvents() bool

	// IsRunning returns true until a close has been requested.
	IsRunning() bool

	// RequestClose marks the window for closing. The platform window stays alive until Close.
	RequestClose()

	// Close destroys the platform window. Every surface bound to it must be released first.
	//
	// Returns:
	//   - error: ErrNotInitialized if the window was already closed
	Close() error

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// Size limits applied while the user resizes the window.
	minWidth, minHeight int
	maxWidth, maxHeight int
	resizable           bool

	// width and height are the framebuffer size in pixels.
	width  int
	height int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onResize  func(width, height int)
	onClose   func()
	onKeyDown func(keyCode int)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a platform window. Applies default values first, then each
// option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if the options are invalid or the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     DefaultTitle,
		minWidth:  200,
		minHeight: 150,
		maxWidth:  3840,
		maxHeight: 2160,
		resizable: true,
		width:     800,
		height:    600,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) validate() error {
	if w.width <= 0 || w.height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", w.width, w.height)
	}
	if w.minWidth > w.maxWidth || w.minHeight > w.maxHeight {
		return fmt.Errorf("window minimum size %dx%d exceeds maximum %dx%d", w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)
	}
	return nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetCloseCallback(callback func()) {
	w.onClose = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode int)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) PollEvents() bool {
	return platformPollEvents(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// handleResize records a framebuffer size change and notifies the resize callback.
func (w *engineWindow) handleResize(width, height int) {
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

// handleClose notifies the close callback once per close request.
func (w *engineWindow) handleClose() {
	if w.onClose != nil {
		w.onClose()
	}
}
