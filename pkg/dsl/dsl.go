// Package dsl is the Lisp front end: it compiles a small scene
// description language into a fexpr.Tree the core renderer can
// evaluate. It wraps github.com/glycerine/zygomys with a fresh
// sandboxed interpreter per call, a generation-counter timeout, and
// source preprocessing for keyword arguments and kebab-case
// identifiers, with builtins that build CSG solids rather than some
// other target graph.
package dsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/heightfield/pkg/eval/fexpr"
)

// EvalError represents a non-fatal error encountered during
// evaluation, such as a parse error or a runtime error in scene code.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for scene evaluation. It is
// safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate compiles Lisp source into a fexpr.Tree.
//
// Return semantics:
//   - On success: returns a tree + nil errors + nil error
//   - On parse/eval failure: returns nil tree + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*fexpr.Tree, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		tree, evalErrs, err := e.evaluate(source)
		ch <- evalResult{tree: tree, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*fexpr.Tree, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return nil, []EvalError{{Message: "empty scene produces no solid"}}, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := fexpr.NewBuilder()
	var root *fexpr.NodeID
	registerBuiltins(env, b, &root)

	src := preprocessSource(source)
	if err := env.LoadString(src); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if root == nil {
		return nil, []EvalError{{Message: "scene evaluated without a (scene ...) call naming the root solid"}}, nil
	}

	return b.Build(*root), nil, nil
}

var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more
// EvalError values, extracting line information when present.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
