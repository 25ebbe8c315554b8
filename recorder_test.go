package incidentdesk_test

import (
	"sync"

	"github.com/incidentdesk/incidentdesk"
)

type phase string

const (
	phaseCreated  phase = "created"
	phaseStarted  phase = "started"
	phaseResolved phase = "resolved"
)

type event struct {
	phase    phase
	actor    int
	incident incidentdesk.Incident
}

// recorder keeps every reported event in the order it was reported
type recorder struct {
	mutex   sync.Mutex
	events  []event
	reports []incidentdesk.Report
}

func (r *recorder) add(e event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Created(client int, incident incidentdesk.Incident) {
	r.add(event{phase: phaseCreated, actor: client, incident: incident})
}

func (r *recorder) Started(server int, incident incidentdesk.Incident) {
	r.add(event{phase: phaseStarted, actor: server, incident: incident})
}

func (r *recorder) Resolved(server int, incident incidentdesk.Incident) {
	r.add(event{phase: phaseResolved, actor: server, incident: incident})
}

func (r *recorder) Stopped(report incidentdesk.Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
}

func (r *recorder) snapshot() []event {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]event(nil), r.events...)
}

func (r *recorder) count(p phase) int {
	n := 0
	for _, e := range r.snapshot() {
		if e.phase == p {
			n++
		}
	}
	return n
}
