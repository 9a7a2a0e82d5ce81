package shader

import (
	"errors"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// loaderIdleTimeout bounds how long loader workers linger after the last shader is compiled.
const loaderIdleTimeout = 2 * time.Second

// LoadPair loads a vertex shader and an optional fragment shader concurrently. Both stages are
// compiled on a short-lived worker pool, one task per stage, and the pool is stopped before
// returning.
//
// Parameters:
//   - vertex: the vertex shader config
//   - fragment: the fragment shader config, or nil for a vertex-only pipeline
//
// Returns:
//   - Shader: the loaded vertex shader
//   - Shader: the loaded fragment shader, or nil when fragment is nil
//   - error: the joined load errors of every stage that failed
func LoadPair(vertex ShaderConfig, fragment *ShaderConfig) (Shader, Shader, error) {
	type job struct {
		cfg        ShaderConfig
		shaderType ShaderType
	}
	jobs := []job{{vertex, ShaderTypeVertex}}
	if fragment != nil {
		jobs = append(jobs, job{*fragment, ShaderTypeFragment})
	}

	pool := worker.NewDynamicWorkerPool(len(jobs), len(jobs), loaderIdleTimeout)
	defer pool.Stop()

	// pool.Wait blocks until workers idle-exit, so a WaitGroup marks batch completion instead.
	var wg sync.WaitGroup
	results := make([]Shader, len(jobs))
	errs := make([]error, len(jobs))
	for i, j := range jobs {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: j.cfg,
			Do: func() (any, error) {
				defer wg.Done()
				results[i], errs[i] = Load(j.cfg, j.shaderType)
				return results[i], errs[i]
			},
		})
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, nil, err
	}
	var fs Shader
	if fragment != nil {
		fs = results[1]
	}
	return results[0], fs, nil
}
