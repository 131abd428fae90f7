package detection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edirooss/witness-console/internal/domain/camera"
)

// Counts are detection counts by category.
type Counts struct {
	People  int `json:"people"`
	Vehicle int `json:"vehicle"`
	Box     int `json:"box"`
}

func (c Counts) validate() error {
	if c.People < 0 || c.Vehicle < 0 || c.Box < 0 {
		return errors.New("counts must be non-negative")
	}
	return nil
}

// PerCamera is the latest counts for one camera. Owned by the backend; never mutated here.
type PerCamera struct {
	Camera camera.Label `json:"camera"`
	Counts
}

// Snapshot is one push of the counts feed. A newer snapshot wholly replaces an older one.
type Snapshot struct {
	Total     Counts      `json:"total"`
	PerCamera []PerCamera `json:"per_camera"`
	Date      string      `json:"date"`
}

// Empty reports whether the snapshot carries no per-camera entries.
func (s Snapshot) Empty() bool { return len(s.PerCamera) == 0 }

// Find returns the entry for label, if present. First match wins.
func (s Snapshot) Find(label camera.Label) (PerCamera, bool) {
	for _, pc := range s.PerCamera {
		if pc.Camera == label {
			return pc, true
		}
	}
	return PerCamera{}, false
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.PerCamera = make([]PerCamera, len(s.PerCamera))
	copy(out.PerCamera, s.PerCamera)
	return out
}

// ParseSnapshot decodes and validates one counts-feed message.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := s.Total.validate(); err != nil {
		return Snapshot{}, fmt.Errorf("total: %w", err)
	}
	for i, pc := range s.PerCamera {
		if pc.Camera == "" {
			return Snapshot{}, fmt.Errorf("per_camera[%d]: missing camera", i)
		}
		if err := pc.validate(); err != nil {
			return Snapshot{}, fmt.Errorf("per_camera[%d]: %w", i, err)
		}
	}
	if s.PerCamera == nil {
		s.PerCamera = []PerCamera{}
	}
	return s, nil
}
