// Package engine provides the Lisp modeling engine for csgeom.
// It wraps zygomys in a sandboxed environment and produces a geometry.Model
// from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/csgeom/pkg/geometry"
	"github.com/chazu/csgeom/pkg/region"
	"github.com/chazu/csgeom/pkg/region/sdfx"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides EvalTimeout for every evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithKernel selects the kernel used for box, sphere and cylinder solids
// and their boolean combinations. Planes are always analytic.
func WithKernel(k region.Kernel) Option {
	return func(e *Engine) {
		if k != nil {
			e.kernel = k
		}
	}
}

// Engine wraps the zygomys interpreter for model evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and a fresh model.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout time.Duration
	kernel  region.Kernel
}

// NewEngine creates a new Engine. Solids default to the sdfx kernel.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout: EvalTimeout,
		kernel:  sdfx.NewKernel(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate takes Lisp source code and builds a new geometry.Model. The
// model's Root is whatever the source passed to (root ...), or nil.
//
// Return semantics:
//   - On success: returns model + nil errors + nil error
//   - On parse/eval failure: returns nil model + eval errors + nil error
//   - On fatal failure (ErrEvalTimeout, ErrSuperseded, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*geometry.Model, []EvalError, error) {
	gen := e.begin()
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		m, evalErrs, err := e.evaluate(source)
		ch <- evalResult{model: m, errors: evalErrs, err: err}
	}()

	return e.await(ch, gen)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*geometry.Model, []EvalError, error) {
	m := geometry.NewModel()
	if strings.TrimSpace(source) == "" {
		return m, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, &builder{model: m, kernel: e.kernel})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return m, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// No line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
