package spapi

import "fmt"

// JobState is the lifecycle state of a report job
type JobState string

const (
	StateCreated    JobState = "CREATED"
	StateInQueue    JobState = "IN_QUEUE"
	StateInProgress JobState = "IN_PROGRESS"
	StateDone       JobState = "DONE"
	StateFatal      JobState = "FATAL"
	StateCancelled  JobState = "CANCELLED"
	StateDownloaded JobState = "DOWNLOADED"
)

var transitions = map[JobState][]JobState{
	StateCreated:    {StateInQueue, StateInProgress, StateDone, StateFatal, StateCancelled},
	StateInQueue:    {StateInQueue, StateInProgress, StateDone, StateFatal, StateCancelled},
	StateInProgress: {StateInProgress, StateDone, StateFatal, StateCancelled},
	StateDone:       {StateDownloaded},
}

// ParseProcessingStatus maps a processingStatus value reported by the API.
// CREATED and DOWNLOADED are local states and are rejected here.
func ParseProcessingStatus(s string) (JobState, error) {
	switch st := JobState(s); st {
	case StateInQueue, StateInProgress, StateDone, StateFatal, StateCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Terminal reports whether no further transitions are possible. DONE is not
// terminal because the document still has to be downloaded.
func (s JobState) Terminal() bool {
	return s == StateFatal || s == StateCancelled || s == StateDownloaded
}

// ReportJob tracks a single report generation request. It is never persisted.
type ReportJob struct {
	ReportType       string
	ReportID         string
	State            JobState
	ReportDocumentID string
	Window           Window
}

// Transition moves the job to next, rejecting moves the lifecycle does not allow.
// Re-reporting IN_QUEUE or IN_PROGRESS while polling is allowed.
func (j *ReportJob) Transition(next JobState) error {
	for _, allowed := range transitions[j.State] {
		if allowed == next {
			j.State = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s (report %s)", ErrInvalidTransition, j.State, next, j.ReportID)
}
