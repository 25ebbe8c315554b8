package incidentdesk

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Defaults used by NewDesk when no option overrides them
const (
	DefaultWorkers            = 6
	DefaultClients            = 3
	DefaultServers            = 3
	DefaultIncidentsPerClient = 5
	DefaultClientDelay        = 500 * time.Millisecond
	DefaultServerDelay        = 1 * time.Second
	DefaultRunFor             = 5 * time.Second
)

var (
	// ErrDeskAlreadyRun is returned when Run is called more than once on the same desk
	ErrDeskAlreadyRun = errors.New("desk has already been run")
)

// DeskOption represents an option that can be passed to NewDesk to customize it
type DeskOption func(*Desk)

// WithWorkers changes the number of worker slots shared by clients and servers
func WithWorkers(workers int) DeskOption {
	return func(d *Desk) {
		d.workers = workers
	}
}

// WithClients changes the number of producer tasks
func WithClients(clients int) DeskOption {
	return func(d *Desk) {
		d.clients = clients
	}
}

// WithServers changes the number of consumer tasks
func WithServers(servers int) DeskOption {
	return func(d *Desk) {
		d.servers = servers
	}
}

// WithIncidentsPerClient changes how many incidents each client reports
func WithIncidentsPerClient(incidents int) DeskOption {
	return func(d *Desk) {
		d.incidentsPerClient = incidents
	}
}

// WithClientDelay changes the pause a client takes after reporting an incident
func WithClientDelay(delay time.Duration) DeskOption {
	return func(d *Desk) {
		d.clientDelay = delay
	}
}

// WithServerDelay changes the time a server spends resolving an incident
func WithServerDelay(delay time.Duration) DeskOption {
	return func(d *Desk) {
		d.serverDelay = delay
	}
}

// WithRunFor changes how long Run lets the desk work before stopping it
func WithRunFor(runFor time.Duration) DeskOption {
	return func(d *Desk) {
		d.runFor = runFor
	}
}

// WithReporter sets where status events go. Events are discarded by default.
func WithReporter(reporter Reporter) DeskOption {
	return func(d *Desk) {
		d.reporter = reporter
	}
}

// WithQueueCapacity bounds the incident queue, see WithCapacity
func WithQueueCapacity(capacity int) DeskOption {
	return func(d *Desk) {
		d.queueCapacity = capacity
	}
}

// WithCancelOnStop makes clients and servers observe the stop signal: servers return
// when they next wait for an incident and clients cut their pause short.
// By default tasks are left running when the desk stops.
func WithCancelOnStop(cancel bool) DeskOption {
	return func(d *Desk) {
		d.cancelOnStop = cancel
	}
}

// Report is a snapshot of the desk counters.
type Report struct {
	Created  uint64
	Started  uint64
	Resolved uint64
	// Queued is the number of incidents created but not yet taken by a server
	Queued  uint64
	Elapsed time.Duration
}

// Desk wires clients and servers to a shared incident queue and runs them
// on a fixed-size worker pool for a fixed amount of time.
type Desk struct {
	workers            int
	clients            int
	servers            int
	incidentsPerClient int
	clientDelay        time.Duration
	serverDelay        time.Duration
	runFor             time.Duration
	queueCapacity      int
	cancelOnStop       bool
	reporter           Reporter

	ids   *IDAllocator
	queue *Queue[Incident]
	pool  *WorkerPool

	created  atomic.Uint64
	started  atomic.Uint64
	resolved atomic.Uint64
	ran      atomic.Bool
}

// NewDesk creates a desk with the default sizing unless overridden by options.
func NewDesk(options ...DeskOption) *Desk {
	d := &Desk{
		workers:            DefaultWorkers,
		clients:            DefaultClients,
		servers:            DefaultServers,
		incidentsPerClient: DefaultIncidentsPerClient,
		clientDelay:        DefaultClientDelay,
		serverDelay:        DefaultServerDelay,
		runFor:             DefaultRunFor,
		reporter:           NopReporter{},
	}

	for _, option := range options {
		option(d)
	}

	if d.clients < 0 {
		d.clients = 0
	}
	if d.servers < 0 {
		d.servers = 0
	}
	if d.reporter == nil {
		d.reporter = NopReporter{}
	}

	d.ids = NewIDAllocator()
	d.queue = NewQueue[Incident](WithCapacity(d.queueCapacity))
	// Tasks beyond the worker limit wait for a free worker instead of blocking Run
	d.pool = New(d.workers, d.clients+d.servers)

	return d
}

// Run submits every client and then every server to the pool, lets them work for the
// configured duration (or until ctx ends) and stops the pool.
// Stopping does not wait for anything: incidents still queued or being resolved are
// abandoned and the returned report only counts them.
func (d *Desk) Run(ctx context.Context) (Report, error) {
	if !d.ran.CompareAndSwap(false, true) {
		return Report{}, ErrDeskAlreadyRun
	}

	start := time.Now()

	taskCtx := context.Background()
	if d.cancelOnStop {
		taskCtx = d.pool.Context()
	}

	reporter := &countingReporter{Reporter: d.reporter, desk: d}

	for c := 0; c < d.clients; c++ {
		producer := &Producer{
			Client:    c,
			Incidents: d.incidentsPerClient,
			Delay:     d.clientDelay,
			IDs:       d.ids,
			Queue:     d.queue,
			Reporter:  reporter,
		}
		if err := d.pool.Submit(func() { producer.Run(taskCtx) }); err != nil {
			d.pool.Stop()
			return d.Stats(), fmt.Errorf("submitting client %d: %w", c, err)
		}
	}

	for s := 0; s < d.servers; s++ {
		consumer := &Consumer{
			Server:   s,
			Delay:    d.serverDelay,
			Queue:    d.queue,
			Reporter: reporter,
		}
		if err := d.pool.Submit(func() { consumer.Run(taskCtx) }); err != nil {
			d.pool.Stop()
			return d.Stats(), fmt.Errorf("submitting server %d: %w", s, err)
		}
	}

	timer := time.NewTimer(d.runFor)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}

	d.pool.Stop()

	report := d.Stats()
	report.Elapsed = time.Since(start)
	d.reporter.Stopped(report)

	return report, nil
}

// Stats returns the current counters
func (d *Desk) Stats() Report {
	return Report{
		Created:  d.created.Load(),
		Started:  d.started.Load(),
		Resolved: d.resolved.Load(),
		Queued:   d.queue.Len(),
	}
}

// Pool returns the worker pool running clients and servers
func (d *Desk) Pool() *WorkerPool {
	return d.pool
}

// Queue returns the incident queue
func (d *Desk) Queue() *Queue[Incident] {
	return d.queue
}

// IDs returns the incident id allocator
func (d *Desk) IDs() *IDAllocator {
	return d.ids
}

// countingReporter updates the desk counters before forwarding events
type countingReporter struct {
	Reporter
	desk *Desk
}

func (r *countingReporter) Created(client int, incident Incident) {
	r.desk.created.Add(1)
	r.Reporter.Created(client, incident)
}

func (r *countingReporter) Started(server int, incident Incident) {
	r.desk.started.Add(1)
	r.Reporter.Started(server, incident)
}

func (r *countingReporter) Resolved(server int, incident Incident) {
	r.desk.resolved.Add(1)
	r.Reporter.Resolved(server, incident)
}
