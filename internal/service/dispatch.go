package service

import (
	"context"
	"fmt"

	"github.com/trustedge/integrations/internal/domain/model"
)

// HandlerFunc executes one job attempt. A nil return marks the job
// succeeded; any error routes it through the retry policy.
type HandlerFunc func(ctx context.Context, job *model.IntegrationJob) error

// Dispatcher routes claimed jobs to their type handler.
type Dispatcher struct {
	handlers map[model.JobType]HandlerFunc
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[model.JobType]HandlerFunc)}
}

// Register installs the handler for a job type, replacing any previous one.
func (d *Dispatcher) Register(jobType model.JobType, handler HandlerFunc) {
	d.handlers[jobType] = handler
}

// Dispatch runs the handler registered for the job's type.
func (d *Dispatcher) Dispatch(ctx context.Context, job *model.IntegrationJob) error {
	handler, ok := d.handlers[job.Type]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownJobType, job.Type)
	}
	return handler(ctx, job)
}
