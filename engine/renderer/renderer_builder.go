package renderer

import (
	"github.com/Carmen-Shannon/voxels/engine/mesh"
	"github.com/Carmen-Shannon/voxels/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithClearColor sets the background color each frame is cleared to.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = color
	}
}

// WithMeshes sets the mesh collection the renderer draws. By default an empty collection is created.
//
// Parameters:
//   - meshes: the mesh collection
//
// Returns:
//   - RendererBuilderOption: a function that applies the mesh collection option to a renderer
func WithMeshes(meshes mesh.Collection) RendererBuilderOption {
	return func(r *renderer) {
		r.meshes = meshes
	}
}

// WithUpdater sets the time uniform updater. By default an updater on the system clock is created,
// so the uniform starts at zero when the renderer is created.
//
// Parameters:
//   - updater: the uniform updater
//
// Returns:
//   - RendererBuilderOption: a function that applies the updater option to a renderer
func WithUpdater(updater uniform.Updater) RendererBuilderOption {
	return func(r *renderer) {
		r.updater = updater
	}
}

// WithMutationQueueSize sets how many Enqueue calls can be pending between two frames.
//
// Parameters:
//   - size: the queue capacity, at least 1
//
// Returns:
//   - RendererBuilderOption: a function that applies the queue size option to a renderer
func WithMutationQueueSize(size int) RendererBuilderOption {
	return func(r *renderer) {
		r.mutationQueueSize = size
	}
}
