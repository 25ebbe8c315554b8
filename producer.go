package incidentdesk

import (
	"context"
	"time"
)

// Producer is a client that reports a fixed batch of incidents.
type Producer struct {
	Client    int
	Incidents int
	Delay     time.Duration

	IDs      *IDAllocator
	Queue    *Queue[Incident]
	Reporter Reporter
}

// Run creates Incidents incidents, pausing Delay after each one. The pause holds
// the caller's goroutine. Run returns early with ctx.Err() if ctx ends while
// waiting for room in the queue or during a pause.
func (p *Producer) Run(ctx context.Context) error {
	for n := 0; n < p.Incidents; n++ {
		incident := NewIncident(p.IDs.Next(), p.Client)

		if err := p.Queue.PutContext(ctx, incident); err != nil {
			return err
		}
		p.Reporter.Created(p.Client, incident)

		if err := sleep(ctx, p.Delay); err != nil {
			return err
		}
	}
	return nil
}

// sleep pauses for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
