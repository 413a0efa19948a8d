package dsl

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/heightfield/pkg/eval/fexpr"
)

// EvalTimeout is the hard limit for a single scene evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	tree   *fexpr.Tree
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout
// error if evaluation exceeds EvalTimeout. It uses a generation
// counter to discard stale results from a superseded evaluation.
//
// On timeout the goroutine may still be running; the generation
// check ensures its eventual result is discarded.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*fexpr.Tree, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.tree, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
