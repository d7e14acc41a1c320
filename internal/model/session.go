package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is a stage in the lifecycle of a detected barcode.
type SessionState string

// Session lifecycle states.
const (
	StateIdle       SessionState = "IDLE"
	StateDetected   SessionState = "DETECTED"
	StateMatched    SessionState = "MATCHED"
	StateUnmatched  SessionState = "UNMATCHED"
	StateCapturing  SessionState = "CAPTURING_QUANTITY"
	StateConfirming SessionState = "CONFIRMING"
	StateCommitted  SessionState = "COMMITTED"
	StateCancelled  SessionState = "CANCELLED"
)

// Terminal reports whether the state ends the session.
func (s SessionState) Terminal() bool {
	return s == StateCommitted || s == StateCancelled
}

// ScanSession is the transient value object for one detected code,
// from detection through commit or cancel. It is never persisted.
// The ID tags every delayed event the session schedules so that a
// timer firing after the session is gone can be discarded.
type ScanSession struct {
	StartedAt time.Time
	Product   *Product
	Code      string
	State     SessionState
	ID        uuid.UUID
	Quantity  int
}

// NewScanSession creates a session for a freshly detected code.
func NewScanSession(code string) ScanSession {
	return ScanSession{
		ID:        uuid.New(),
		Code:      code,
		State:     StateDetected,
		StartedAt: time.Now(),
	}
}
