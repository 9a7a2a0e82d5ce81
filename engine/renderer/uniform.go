package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/voxels/engine/renderer/uniform"
)

// uniformBinding owns the time uniform buffer. The buffer is created once and rewritten every frame.
type uniformBinding struct {
	updater uniform.Updater
	buffer  Buffer
	current uniform.TimeUniform
}

func newUniformBinding(ctx GraphicsContext, updater uniform.Updater) (*uniformBinding, error) {
	buf, err := ctx.CreateUniformBuffer("Time Uniform Buffer", uniform.TimeUniformSize)
	if err != nil {
		return nil, err
	}
	return &uniformBinding{updater: updater, buffer: buf}, nil
}

// upload advances the updater and writes its value to the uniform buffer.
func (u *uniformBinding) upload(ctx GraphicsContext) error {
	u.current = u.updater.Advance()
	if err := ctx.WriteBuffer(u.buffer, u.current.Marshal()); err != nil {
		return fmt.Errorf("failed to upload time uniform: %w", err)
	}
	return nil
}

func (u *uniformBinding) release() {
	if u.buffer != nil {
		u.buffer.Release()
		u.buffer = nil
	}
}
