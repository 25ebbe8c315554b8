package incidentdesk

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Sink receives finished status lines. *log.Logger satisfies it.
type Sink interface {
	Println(v ...any)
}

// Reporter is notified of every step an incident goes through.
// Methods are called concurrently from producer and consumer goroutines.
type Reporter interface {
	Created(client int, incident Incident)
	Started(server int, incident Incident)
	Resolved(server int, incident Incident)
	Stopped(report Report)
}

var (
	clientStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	serverStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	resolvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	bannerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// ConsoleReporter writes one human readable line per event to a Sink.
type ConsoleReporter struct {
	sink   Sink
	styled bool
}

// NewConsoleReporter creates a reporter writing to sink. When styled is true lines are
// colored for a terminal.
func NewConsoleReporter(sink Sink, styled bool) *ConsoleReporter {
	return &ConsoleReporter{
		sink:   sink,
		styled: styled,
	}
}

func (r *ConsoleReporter) Created(client int, incident Incident) {
	r.emit(clientStyle, "Client\t%d\tcreated incident\t%d", client, incident.ID)
}

func (r *ConsoleReporter) Started(server int, incident Incident) {
	r.emit(serverStyle, "Server\t%d\tprocessing incident\t%d...", server, incident.ID)
}

func (r *ConsoleReporter) Resolved(server int, incident Incident) {
	r.emit(resolvedStyle, "Incident\t%d\tresolved by server\t%d", incident.ID, server)
}

func (r *ConsoleReporter) Stopped(report Report) {
	r.emit(bannerStyle, "System stopped (created=%d started=%d resolved=%d queued=%d)",
		report.Created, report.Started, report.Resolved, report.Queued)
}

// emit renders the whole line before handing it over, so concurrent lines never interleave.
func (r *ConsoleReporter) emit(style lipgloss.Style, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if r.styled {
		line = style.Render(line)
	}
	r.sink.Println(line)
}

// NopReporter discards every event
type NopReporter struct{}

func (NopReporter) Created(int, Incident)  {}
func (NopReporter) Started(int, Incident)  {}
func (NopReporter) Resolved(int, Incident) {}
func (NopReporter) Stopped(Report)         {}
