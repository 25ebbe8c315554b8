package incidentdesk

import "fmt"

// Incident is a unit of work reported by a client and resolved by a server.
// It is passed around by value and never modified after creation.
type Incident struct {
	ID          uint64
	Description string
}

// NewIncident creates an incident reported by the given client.
func NewIncident(id uint64, client int) Incident {
	return Incident{
		ID:          id,
		Description: fmt.Sprintf("failure detected by client %d", client),
	}
}

func (i Incident) String() string {
	return fmt.Sprintf("#%d (%s)", i.ID, i.Description)
}
