package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/csgeom/pkg/geometry"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrEvalTimeout is returned when an evaluation runs past the engine's
	// timeout. The interpreter goroutine is abandoned, not killed.
	ErrEvalTimeout = errors.New("evaluation timed out")

	// ErrSuperseded is returned for a result that finished after a newer
	// Evaluate call started on the same engine.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult passes evaluation output from the worker goroutine.
type evalResult struct {
	model  *geometry.Model
	errors []EvalError
	err    error
}

// await blocks until the evaluation numbered gen reports on ch or the
// engine's timeout expires.
func (e *Engine) await(ch <-chan evalResult, gen uint64) (*geometry.Model, []EvalError, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	select {
	case res := <-ch:
		if !e.isCurrent(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.model, res.errors, res.err
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%w after %s", ErrEvalTimeout, e.timeout)
	}
}

// begin starts a new generation and returns its number.
func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

func (e *Engine) isCurrent(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation == gen
}
