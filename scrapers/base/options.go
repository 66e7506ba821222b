package base

import "time"

// WaitUntil selects the navigation milestone Open waits for.
type WaitUntil int

const (
	// WaitNetworkIdle waits until at most two requests are in flight.
	WaitNetworkIdle WaitUntil = iota
	// WaitDOMContentLoaded waits for the initial document to be parsed.
	WaitDOMContentLoaded
)

func (w WaitUntil) String() string {
	switch w {
	case WaitNetworkIdle:
		return "network idle"
	case WaitDOMContentLoaded:
		return "DOMContentLoaded"
	default:
		return "unknown"
	}
}

// Timeouts bounds every waiting step of a run.
type Timeouts struct {
	Navigation    time.Duration
	Payload       time.Duration
	RegionButton  time.Duration
	RegionList    time.Duration
	RegionApplied time.Duration
	DetailReady   time.Duration
	Screenshot    time.Duration
	PollInterval  time.Duration
}

// DefaultTimeouts returns the per-step limits used in production.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation:    60 * time.Second,
		Payload:       60 * time.Second,
		RegionButton:  30 * time.Second,
		RegionList:    30 * time.Second,
		RegionApplied: 45 * time.Second,
		DetailReady:   30 * time.Second,
		Screenshot:    60 * time.Second,
		PollInterval:  250 * time.Millisecond,
	}
}

// Options configures a page reader backend.
type Options struct {
	AcceptLanguage string
	UserAgent      string
	Headless       bool
	ChromePath     string
	DriverPath     string
	JPEGQuality    int
	Timeouts       Timeouts
	Ports          *PortManager
}
