package controller

import "github.com/tanq16/pulldown/internal/transfer"

type State string

const (
	StatePending     State = "pending"
	StateDownloading State = "downloading"
	StatePaused      State = "paused"
	StateDone        State = "done"
	StateFailed      State = "failed"
	StateCancelled   State = "cancelled"
)

// Record is the controller's view of one download. Everything except ID,
// URL and FileName is a projection of the worker's status events.
type Record struct {
	ID         transfer.ID `json:"id"`
	URL        string      `json:"url"`
	FileName   string      `json:"file_name"`
	TotalSize  int64       `json:"total_size"`
	Downloaded int64       `json:"downloaded"`
	Paused     bool        `json:"paused"`
	Done       bool        `json:"done"`
	Speed      int64       `json:"speed"`
	Failed     bool        `json:"failed"`
	Err        string      `json:"error,omitempty"`
	Cancelled  bool        `json:"cancelled"`
}

// Ratio is Downloaded/TotalSize clamped to [0,1], or 0 while the total is
// unknown.
func (r Record) Ratio() float64 {
	if r.TotalSize <= 0 {
		return 0
	}
	if r.Downloaded >= r.TotalSize {
		return 1
	}
	return float64(r.Downloaded) / float64(r.TotalSize)
}

// Terminal reports whether the worker has sent its last event.
func (r Record) Terminal() bool {
	return r.Done || r.Failed || r.Cancelled
}

func (r Record) State() State {
	switch {
	case r.Done:
		return StateDone
	case r.Failed:
		return StateFailed
	case r.Cancelled:
		return StateCancelled
	case r.Paused:
		return StatePaused
	case r.Downloaded == 0 && r.TotalSize == 0:
		return StatePending
	default:
		return StateDownloading
	}
}
