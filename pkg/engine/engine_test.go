package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chazu/csgeom/pkg/region"
)

func TestEvaluateBlankSource(t *testing.T) {
	for _, src := range []string{"", "   \n\t  \n  "} {
		m, evalErrs, err := NewEngine().Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if m == nil {
			t.Fatal("expected non-nil model")
		}
		if m.Root != nil {
			t.Errorf("expected no root, got %v", m.Root)
		}
	}
}

func TestEvaluatePlainLisp(t *testing.T) {
	source := `
(def x 10)
(def y 20)
(+ x y)
`
	m, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if m == nil || m.Root != nil {
		t.Fatalf("expected an empty model, got %+v", m)
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unmatched paren", "(+ 1 2"},
		{"undefined symbol", "(+ 1 undefined-symbol)"},
		{"error on second line", "(+ 1 2)\n(+ 3"},
		{"builtin rejects input", `(box (vec3 0 0 0) "corner")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if m != nil {
				t.Fatal("expected nil model on eval error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected at least one eval error")
			}
			if evalErrs[0].Message == "" {
				t.Error("eval error message should not be empty")
			}
		})
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateFreshModelEachCall(t *testing.T) {
	eng := NewEngine()
	source := `(root (universe :id 1 (cell :id 1)))`

	for i := 0; i < 5; i++ {
		m, evalErrs, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		// Explicit ids would collide if the model were reused.
		if m.Root == nil || m.Root.ID() != 1 {
			t.Fatalf("iteration %d: unexpected root %v", i, m.Root)
		}
	}
}

func TestAwaitTimeout(t *testing.T) {
	eng := NewEngine(WithTimeout(50 * time.Millisecond))
	gen := eng.begin()
	ch := make(chan evalResult) // never sends

	start := time.Now()
	_, _, err := eng.await(ch, gen)
	if !errors.Is(err, ErrEvalTimeout) {
		t.Fatalf("err = %v, want ErrEvalTimeout", err)
	}
	if !strings.Contains(err.Error(), "50ms") {
		t.Errorf("timeout error should name the limit, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestAwaitDiscardsStaleGeneration(t *testing.T) {
	eng := NewEngine()
	stale := eng.begin()
	eng.begin()

	ch := make(chan evalResult, 1)
	ch <- evalResult{model: nil}

	if _, _, err := eng.await(ch, stale); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("err = %v, want ErrSuperseded", err)
	}
}

func TestAwaitCurrentGeneration(t *testing.T) {
	eng := NewEngine()
	gen := eng.begin()

	ch := make(chan evalResult, 1)
	ch <- evalResult{errors: []EvalError{{Line: 2, Message: "bad"}}}

	m, evalErrs, err := eng.await(ch, gen)
	if err != nil || m != nil {
		t.Fatalf("await = %v, %v", m, err)
	}
	if len(evalErrs) != 1 || evalErrs[0].Line != 2 {
		t.Errorf("eval errors = %v", evalErrs)
	}
}

func TestOptions(t *testing.T) {
	eng := NewEngine(WithTimeout(time.Second), WithKernel(region.Analytic{}))
	if eng.timeout != time.Second {
		t.Errorf("timeout = %s, want 1s", eng.timeout)
	}
	if _, ok := eng.kernel.(region.Analytic); !ok {
		t.Errorf("kernel = %T, want region.Analytic", eng.kernel)
	}

	// Zero values keep the defaults.
	eng = NewEngine(WithTimeout(0), WithKernel(nil))
	if eng.timeout != EvalTimeout || eng.kernel == nil {
		t.Errorf("zero options should keep defaults, got timeout=%s kernel=%T", eng.timeout, eng.kernel)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line format", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"line format lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short line format", "line 3: bad cell", 3, "bad cell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
