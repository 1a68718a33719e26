package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/PratikDhanave/gamedata-server/internal/errsink"
	"github.com/PratikDhanave/gamedata-server/internal/models"
	"github.com/PratikDhanave/gamedata-server/internal/normalize"
	"github.com/PratikDhanave/gamedata-server/internal/processor"
)

func (p *Pipeline) loop(ctx context.Context, proc *processor.Processor, sink errsink.Sink, b Backend) {
	defer func() {
		p.active.Store(false)
		if b.Release != nil {
			b.Release()
		}
		p.logger.Printf("pipeline: worker stopped")
		p.closeDone()
	}()

	for {
		p.active.Store(false)
		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		p.active.Store(true)
		p.process(ctx, proc, sink, task)
	}
}

// process handles one task. Nothing it does can end the loop: errors and
// panics become ERROR reports.
func (p *Pipeline) process(ctx context.Context, proc *processor.Processor, sink errsink.Sink, task models.Task) {
	var req models.Request
	report := func(sev models.Severity, msg string) {
		sink.Record(ctx, errsink.Report{Task: task, Request: req, Message: msg, Severity: sev})
	}
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			report(models.SeverityError, fmt.Sprintf("unexpected failure while processing task: %v", r))
		}
	}()
	p.processed.Add(1)

	res, err := normalize.Task(task)
	var parseErr *normalize.ParseError
	switch {
	case errors.As(err, &parseErr):
		// continue with the empty map so the data check reports it as well
		report(models.SeverityError, parseErr.Error())
	case err != nil:
		p.rejected.Add(1)
		report(models.SeverityError, err.Error())
		return
	}
	req = res.Request

	for _, key := range res.Duplicates {
		report(models.SeverityWarning, fmt.Sprintf("duplicate key %s in request, last value kept", key))
	}

	out, err := proc.Store(ctx, task, req)
	switch {
	case err != nil && ctx.Err() != nil:
		p.logger.Printf("pipeline: task %s abandoned at shutdown: %v", task.ID, err)
	case err != nil:
		p.failed.Add(1)
		report(models.SeverityError, err.Error())
	case out.Stored:
		p.stored.Add(1)
	default:
		p.rejected.Add(1)
	}
}
