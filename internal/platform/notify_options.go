// Package platform sends desktop notifications through the host's
// notification service.
package platform

import "time"

// AppName is reported to the notification service as the sender.
const AppName = "Spraycan"

// DefaultTimeout is how long a notification stays up when Options.Timeout
// is zero.
const DefaultTimeout = 5 * time.Second

// Urgency ranks a notification. Failures are sent as UrgencyCritical.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	Urgency  Urgency
	Timeout  time.Duration
	// Replace updates the previous notification of this process instead of
	// stacking a new one. Only honoured where the service supports it.
	Replace bool
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}
