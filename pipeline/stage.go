package pipeline

import (
	"fmt"
	"time"
)

// =============================================================================
// PIPELINE STAGES
// =============================================================================

type Stage string

const (
	StageSubmitted      Stage = "submitted"
	StageUnderReview    Stage = "under_review"
	StageGreenlit       Stage = "greenlit"
	StagePreProduction  Stage = "pre_production"
	StageProduction     Stage = "production"
	StagePostProduction Stage = "post_production"
	StageDelivered      Stage = "delivered"
	StageRejected       Stage = "rejected"
)

// Stages lists the forward pipeline in order. Rejected sits outside it.
func Stages() []Stage {
	return []Stage{
		StageSubmitted,
		StageUnderReview,
		StageGreenlit,
		StagePreProduction,
		StageProduction,
		StagePostProduction,
		StageDelivered,
	}
}

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if st == StageRejected || st.index() >= 0 {
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, s)
}

// IsTerminal reports whether no further transitions are possible.
func (s Stage) IsTerminal() bool {
	return s == StageDelivered || s == StageRejected
}

// Next returns the following stage in the forward pipeline.
func (s Stage) Next() (Stage, bool) {
	i := s.index()
	stages := Stages()
	if i < 0 || i+1 >= len(stages) {
		return "", false
	}
	return stages[i+1], true
}

func (s Stage) index() int {
	for i, st := range Stages() {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransition allows one step forward, or rejection from any open stage.
func CanTransition(from, to Stage) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StageRejected {
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}

// StageEvent is one entry in a project's pipeline history.
type StageEvent struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	From      Stage     `json:"from"`
	To        Stage     `json:"to"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
