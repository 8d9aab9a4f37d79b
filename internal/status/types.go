package status

import "time"

// SyncPhase represents the current phase of a synchronization cycle
type SyncPhase string

const (
	// SyncPhaseSyncing means a cycle is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last cycle completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last cycle failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the current state of synchronization for one account
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase" yaml:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty" yaml:"lastAttempt,omitempty"`

	// AttemptCount is the number of sync attempts since last success
	AttemptCount int `json:"attemptCount,omitempty" yaml:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful sync
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty" yaml:"lastSyncTime,omitempty"`

	// ForwardedCount is the number of readings handed to the sink in the last successful cycle
	ForwardedCount int `json:"forwardedCount" yaml:"forwardedCount"`

	// TotalForwarded accumulates ForwardedCount across cycles
	TotalForwarded int `json:"totalForwarded,omitempty" yaml:"totalForwarded,omitempty"`

	// ConnectionName is the display name of the followed connection
	ConnectionName string `json:"connectionName,omitempty" yaml:"connectionName,omitempty"`

	// LastReadingTime is the wire timestamp of the most recent current reading
	LastReadingTime string `json:"lastReadingTime,omitempty" yaml:"lastReadingTime,omitempty"`

	// TermsRequired is set when the remote service demands terms acceptance before any data flows
	TermsRequired bool `json:"termsRequired,omitempty" yaml:"termsRequired,omitempty"`
}

// Clone returns a copy of s that shares no pointers with it
func (s *SyncStatus) Clone() *SyncStatus {
	if s == nil {
		return nil
	}
	c := *s
	if s.LastAttempt != nil {
		t := *s.LastAttempt
		c.LastAttempt = &t
	}
	if s.LastSyncTime != nil {
		t := *s.LastSyncTime
		c.LastSyncTime = &t
	}
	return &c
}

// MarkAttempt moves the status into the syncing phase
func (s *SyncStatus) MarkAttempt(now time.Time) {
	s.Phase = SyncPhaseSyncing
	s.Message = ""
	s.LastAttempt = &now
	s.AttemptCount++
}

// MarkComplete records a successful cycle
func (s *SyncStatus) MarkComplete(now time.Time, forwarded int, connectionName, readingTime string) {
	s.Phase = SyncPhaseComplete
	s.Message = ""
	s.LastSyncTime = &now
	s.AttemptCount = 0
	s.ForwardedCount = forwarded
	s.TotalForwarded += forwarded
	s.TermsRequired = false
	if connectionName != "" {
		s.ConnectionName = connectionName
	}
	if readingTime != "" {
		s.LastReadingTime = readingTime
	}
}

// MarkFailed records a failed cycle
func (s *SyncStatus) MarkFailed(message string, termsRequired bool) {
	s.Phase = SyncPhaseFailed
	s.Message = message
	s.TermsRequired = termsRequired
}
