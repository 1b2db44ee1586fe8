package domain

import "time"

// Severity classifies a notification for display purposes.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// NotificationAction is a single retry-style action bound to a notification.
// Run takes no arguments: the intent it re-attempts is captured at bind time.
type NotificationAction struct {
	Label string
	Run   func()
}

// Notification is a dismissible, optionally auto-expiring user-facing message.
type Notification struct {
	ID       NotificationID
	Severity Severity
	Title    string
	Message  string

	// Duration is how long the notification stays before auto-dismissing.
	// Zero means it persists until dismissed explicitly.
	Duration time.Duration

	Action *NotificationAction
}
