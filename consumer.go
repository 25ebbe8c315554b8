package incidentdesk

import (
	"context"
	"time"
)

// Consumer is a server that resolves incidents for as long as it runs.
type Consumer struct {
	Server int
	Delay  time.Duration

	Queue    *Queue[Incident]
	Reporter Reporter
}

// Run takes incidents one at a time and spends Delay resolving each of them.
// It only returns when ctx ends while waiting for the next incident; an incident
// that has been taken is always resolved first. With a context that is never
// cancelled Run never returns.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		incident, err := c.Queue.TakeContext(ctx)
		if err != nil {
			return err
		}

		c.Reporter.Started(c.Server, incident)
		time.Sleep(c.Delay)
		c.Reporter.Resolved(c.Server, incident)
	}
}
