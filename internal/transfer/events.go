package transfer

import "fmt"

// ID identifies one download for the lifetime of the process.
type ID uint64

// Event is a status update sent by a worker to its controller. Events of a
// single worker arrive in the order they were produced.
type Event interface {
	DownloadID() ID
}

// Total reports the content length declared by the server.
type Total struct {
	ID    ID
	Bytes int64
}

// Downloaded reports the number of bytes written so far.
type Downloaded struct {
	ID    ID
	Bytes int64
}

// Paused reports that the worker flipped its pause state.
type Paused struct {
	ID     ID
	Paused bool
}

// Speed reports the smoothed throughput in bytes per second.
type Speed struct {
	ID             ID
	BytesPerSecond int64
}

// Done reports that the file was renamed into place. It is the last event
// of its worker.
type Done struct {
	ID ID
}

// Failed reports a terminal network or filesystem error. The temporary file
// is left on disk.
type Failed struct {
	ID  ID
	Err error
}

// Cancelled reports that the worker stopped on request and removed its
// temporary file.
type Cancelled struct {
	ID ID
}

func (e Total) DownloadID() ID      { return e.ID }
func (e Downloaded) DownloadID() ID { return e.ID }
func (e Paused) DownloadID() ID     { return e.ID }
func (e Speed) DownloadID() ID      { return e.ID }
func (e Done) DownloadID() ID       { return e.ID }
func (e Failed) DownloadID() ID     { return e.ID }
func (e Cancelled) DownloadID() ID  { return e.ID }

func (e Failed) Error() string {
	return fmt.Sprintf("download %d failed: %v", e.ID, e.Err)
}

func (e Failed) Unwrap() error {
	return e.Err
}

// Signal is a control message from the controller to one worker.
type Signal int

const (
	// SignalToggle flips the current pause state, whatever it is.
	SignalToggle Signal = iota
	// SignalPause pauses an active worker and is ignored by a paused one.
	SignalPause
	// SignalResume resumes a paused worker and is ignored by an active one.
	SignalResume
	// SignalCancel stops the transfer and discards the temporary file.
	SignalCancel
)

func (s Signal) String() string {
	switch s {
	case SignalToggle:
		return "toggle"
	case SignalPause:
		return "pause"
	case SignalResume:
		return "resume"
	case SignalCancel:
		return "cancel"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}
