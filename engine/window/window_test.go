package window

import (
	"errors"
	"testing"
)

func TestOptionsAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []WindowBuilderOption
		wantErr bool
	}{
		{"defaults", nil, false},
		{"custom", []WindowBuilderOption{WithTitle("t"), WithSize(1024, 768), WithMinSize(100, 100), WithMaxSize(2000, 2000), WithResizable(false)}, false},
		{"zero size", []WindowBuilderOption{WithSize(0, 600)}, true},
		{"min above max", []WindowBuilderOption{WithMinSize(900, 100), WithMaxSize(800, 800)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &engineWindow{title: DefaultTitle, minWidth: 200, minHeight: 150, maxWidth: 3840, maxHeight: 2160, width: 800, height: 600}
			for _, opt := range tt.opts {
				opt(w)
			}
			if err := w.validate(); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHandleResizeAndClose(t *testing.T) {
	w := &engineWindow{width: 800, height: 600}
	var gotW, gotH, closes int
	w.SetResizeCallback(func(width, height int) { gotW, gotH = width, height })
	w.SetCloseCallback(func() { closes++ })

	w.handleResize(1024, 0)
	if w.Width() != 1024 || w.Height() != 0 || gotW != 1024 || gotH != 0 {
		t.Errorf("after resize: size %dx%d, callback %dx%d", w.Width(), w.Height(), gotW, gotH)
	}
	w.handleClose()
	if closes != 1 {
		t.Errorf("close callback called %d times, want 1", closes)
	}
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	if w.IsRunning() || w.PollEvents() {
		t.Error("an uninitialized window should not be running")
	}
	if w.SurfaceDescriptor() != nil {
		t.Error("an uninitialized window has no surface descriptor")
	}
	if err := w.Close(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Close() error = %v, want ErrNotInitialized", err)
	}
	w.RequestClose()
}
