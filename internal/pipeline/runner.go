package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Runner drives the configured stages in order. Start kicks off the
// first stage and returns; each approval advances to the next stage from
// the review continuation. Done is closed when the last stage completes
// or a stage fails.
type Runner struct {
	binding *Binding
	stages  []Stage
	project string
	idea    string

	mu       sync.Mutex
	current  int
	finished bool
	err      error
	done     chan struct{}
}

// NewRunner creates a runner for the given stages. project names the
// artifact directory; idea is the free-form product description fed to
// the first stage.
func NewRunner(binding *Binding, stages []Stage, project, idea string) *Runner {
	return &Runner{
		binding: binding,
		stages:  stages,
		project: project,
		idea:    idea,
		current: -1,
		done:    make(chan struct{}),
	}
}

// Start launches the first stage. The producer for each stage runs on
// the calling goroutine of whichever operation advances the pipeline.
func (r *Runner) Start(ctx context.Context) error {
	if len(r.stages) == 0 {
		return fmt.Errorf("no stages configured")
	}
	r.advance(ctx, 0, "")
	return r.Err()
}

// Done is closed when the pipeline finishes, successfully or not.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Err reports the failure that stopped the pipeline, if any.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Current returns the index and name of the running stage. Index -1
// means the pipeline has not started.
func (r *Runner) Current() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current < 0 || r.current >= len(r.stages) {
		return r.current, ""
	}
	return r.current, r.stages[r.current].Name
}

func (r *Runner) advance(ctx context.Context, index int, previous string) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	if index >= len(r.stages) {
		r.finished = true
		r.mu.Unlock()
		log.Printf("pipeline complete: %d stages approved", len(r.stages))
		close(r.done)
		return
	}
	r.current = index
	r.mu.Unlock()

	st := r.stages[index]
	task := renderTask(st, r.idea, previous)

	err := r.binding.RunStage(ctx, st, index+1, r.project, task, func(content string) {
		r.advance(ctx, index+1, content)
	})
	if err != nil {
		r.fail(err)
	}
}

func (r *Runner) fail(err error) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	r.finished = true
	r.err = err
	r.mu.Unlock()

	log.Printf("pipeline stopped: %v", err)
	close(r.done)
}
