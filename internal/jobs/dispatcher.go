package jobs

import (
	"context"
	"fmt"
	"sync"
)

// Dispatcher routes a job to the handler registered for its type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[JobType]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[JobType]Handler)}
}

// Register sets the handler for jobType, replacing any previous one.
func (d *Dispatcher) Register(jobType JobType, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[jobType] = handler
}

// Handle runs the handler registered for job.Type.
func (d *Dispatcher) Handle(ctx context.Context, job *Job) error {
	d.mu.RLock()
	handler, ok := d.handlers[job.Type]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for job type %q", job.Type)
	}
	return handler(ctx, job)
}
