package generation

import (
	"time"

	"github.com/BaSui01/aimlflow/aimlapi"
)

// State is a step in the life of one generation request.
type State int

const (
	StateCreated State = iota
	StateResolved
	StatePolling
	StateCompleted
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateResolved:
		return "resolved"
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateResolved || s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// Status is the normalised meaning of an upstream status string.
type Status string

const (
	StatusSuccess Status = "success"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
	StatusUnknown Status = "unknown"
)

// Default polling budget.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 60
)

// Options configures one Resolve call.
type Options struct {
	MediaType    aimlapi.MediaType
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultOptions returns the baseline polling budget for mediaType.
func DefaultOptions(mediaType aimlapi.MediaType) Options {
	return Options{MediaType: mediaType, PollInterval: DefaultPollInterval, MaxAttempts: DefaultMaxAttempts}
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}
