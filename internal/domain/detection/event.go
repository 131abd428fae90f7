package detection

import (
	"encoding/json"
	"fmt"

	"github.com/edirooss/witness-console/internal/domain/camera"
)

// Event is one detection record pushed by the events feed.
//
// Type is the category/zone tag the export table filters on. TrackID, ZoneID
// and BBox are passed through as received; their shape is up to the backend's
// zone and tracker configuration and the dashboard never reads them.
type Event struct {
	Type       string  `json:"type"`       //
	Class      string  `json:"class"`      //
	Time       string  `json:"time"`       // free text, backend local time
	Date       string  `json:"date"`       // free text, backend local date
	Event      string  `json:"event"`      // description (appear|update|disappear|...)
	Confidence float64 `json:"confidence"` // [0,1]
	Thumbnail  string  `json:"thumbnail"`  // base64 image, may be empty

	Label   camera.Label    `json:"label,omitempty"`
	TrackID json.RawMessage `json:"track_id,omitempty"`
	ZoneID  json.RawMessage `json:"zone_id,omitempty"`
	BBox    json.RawMessage `json:"bbox,omitempty"`
	Mime    string          `json:"mime,omitempty"`
}

// Validate checks the invariants the dashboard relies on.
func (e *Event) Validate() error {
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence %v out of [0,1]", e.Confidence)
	}
	return nil
}

// ParseEvent decodes and validates one events-feed message.
func ParseEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
