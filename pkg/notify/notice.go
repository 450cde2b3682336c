package notify

import (
	"time"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
)

// Notice is the payload sent downstream when a run discovers an event that
// was not in the store before.
type Notice struct {
	SourceID   string       `json:"source_id"`
	SourceName string       `json:"source_name"`
	Event      domain.Event `json:"event"`
	FoundAt    time.Time    `json:"found_at"`
}

// NewNotice builds a Notice for the given source + event.
func NewNotice(sourceID, sourceName string, evt domain.Event) Notice {
	return Notice{
		SourceID:   sourceID,
		SourceName: sourceName,
		Event:      evt,
		FoundAt:    time.Now().UTC(),
	}
}
