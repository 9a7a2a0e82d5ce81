package renderer

import (
	"errors"
	"testing"
)

func TestClassifyAcquireError(t *testing.T) {
	tests := []struct {
		msg         string
		want        error
		recoverable bool
	}{
		{"wgpu.(*Surface).GetCurrentTexture(): Surface texture is Outdated", ErrSurfaceOutdated, true},
		{"wgpu.(*Surface).GetCurrentTexture(): Surface is lost", ErrSurfaceLost, true},
		{"wgpu.(*Surface).GetCurrentTexture(): Timeout", ErrSurfaceTimeout, true},
		{"wgpu.(*Surface).GetCurrentTexture(): Out of memory", ErrOutOfMemory, false},
		{"wgpu.(*Surface).GetCurrentTexture(): Parent device is lost", ErrDeviceLost, false},
		{"wgpu.(*Surface).GetCurrentTexture(): Surface is not configured for presentation", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			base := errors.New(tt.msg)
			err := classifyAcquireError(base)
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("classifyAcquireError(%q) = %v, want %v", tt.msg, err, tt.want)
			}
			if tt.want == nil && !errors.Is(err, base) {
				t.Errorf("unclassified error %v should wrap the original", err)
			}
			if IsRecoverable(err) != tt.recoverable {
				t.Errorf("IsRecoverable(%v) = %v, want %v", err, !tt.recoverable, tt.recoverable)
			}
		})
	}

	if classifyAcquireError(nil) != nil {
		t.Error("classifyAcquireError(nil) should be nil")
	}
}

func TestStartupErrorUnwrap(t *testing.T) {
	cause := errors.New("no adapter")
	err := error(&StartupError{Stage: StageAdapter, Err: cause})
	if !errors.Is(err, cause) {
		t.Error("StartupError should unwrap to its cause")
	}
	if err.Error() != "renderer startup failed at adapter: no adapter" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestCheckSurfaceSize(t *testing.T) {
	tests := []struct {
		name         string
		configured   bool
		surfaceW     int
		surfaceH     int
		windowW      int
		windowH      int
		wantOutdated bool
	}{
		{"matching", true, 800, 600, 800, 600, false},
		{"never configured", false, 800, 600, 800, 600, true},
		{"window grew", true, 800, 600, 1024, 768, true},
		{"window shrank in one axis", true, 800, 600, 800, 400, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSurfaceSize(tt.configured, tt.surfaceW, tt.surfaceH, tt.windowW, tt.windowH)
			if got := errors.Is(err, ErrSurfaceOutdated); got != tt.wantOutdated {
				t.Errorf("checkSurfaceSize() = %v, want outdated %v", err, tt.wantOutdated)
			}
			if err != nil && !IsRecoverable(err) {
				t.Errorf("size mismatch %v should be recoverable", err)
			}
		})
	}
}
