package domain

import (
	"encoding/json"
	"time"
)

// MirroredObject is one modeler object as stored in the local mirror.
type MirroredObject struct {
	Resource string          `json:"resource"`
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Title    string          `json:"title,omitempty"`
	State    string          `json:"state,omitempty"`
	Revision string          `json:"revision,omitempty"`
	Cestamp  string          `json:"cestamp,omitempty"`
	Modified *time.Time      `json:"modified,omitempty"`
	Payload  json.RawMessage `json:"payload"`
	Hash     string          `json:"hash,omitempty"`
	SyncedAt time.Time       `json:"syncedAt"`
}

// SyncReport summarizes one mirror run. Failed lists the ids the server could
// not deliver; they are retried by the next run, not by this one.
type SyncReport struct {
	RunID     string    `json:"runID"`
	Resource  string    `json:"resource"`
	Text      string    `json:"text"`
	Status    RunStatus `json:"status"`
	Seen      int       `json:"seen"`
	Stored    int       `json:"stored"`
	Unchanged int       `json:"unchanged"`
	Skipped   int       `json:"skipped"`
	Failed    []string  `json:"failed"`
	Error     string    `json:"error,omitempty"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
}

func (r *SyncReport) Count(o Outcome) {
	switch o {
	case OutcomeStored:
		r.Stored++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeSkipped:
		r.Skipped++
	}
}
