package camera

import (
	"errors"
	"net/url"
	"strings"
)

// Label is the operator-chosen identifier of a camera. It is the join key between
// the camera list, count snapshots and detection events.
type Label string

func (l Label) String() string { return string(l) }

// Validate rejects blank labels and labels over 128 bytes. Labels are otherwise
// free text and are stored as given, surrounding spaces included.
func (l Label) Validate() error {
	if strings.TrimSpace(string(l)) == "" {
		return errors.New("label must not be empty")
	}
	if len(l) > 128 {
		return errors.New("label must be at most 128 characters")
	}
	return nil
}

// Descriptor is one registered camera as the dashboard knows it.
type Descriptor struct {
	Label     Label  `json:"label"`     //
	StreamURL string `json:"streamUrl"` // derived from Label, see StreamURL
}

// NewDescriptor builds the descriptor for label, deriving its stream address from the backend base URL.
func NewDescriptor(backendBaseURL string, label Label) Descriptor {
	return Descriptor{Label: label, StreamURL: StreamURL(backendBaseURL, label)}
}

// StreamURL returns <base>/stream/<label>. The label is path-escaped.
func StreamURL(backendBaseURL string, label Label) string {
	return strings.TrimRight(backendBaseURL, "/") + "/stream/" + url.PathEscape(string(label))
}

// Registration is what the backend receives on POST /api/add_camera.
type Registration struct {
	Label     Label  `json:"label"`
	IPAddress string `json:"ip_address"`
}

// Validate requires both fields to be present. The address format is left to the backend.
func (r *Registration) Validate() error {
	if err := r.Label.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.IPAddress) == "" {
		return errors.New("ip_address must not be empty")
	}
	if len(r.IPAddress) > 2048 {
		return errors.New("ip_address must be at most 2048 characters")
	}
	return nil
}
