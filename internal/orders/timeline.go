package orders

import (
	"time"

	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
)

// StepState describes where one fulfillment stage sits relative to the
// order's current status.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepUpcoming  StepState = "upcoming"
)

// TimelineStep is one entry in the customer-facing order tracker.
type TimelineStep struct {
	Status enums.OrderStatus `json:"status"`
	State  StepState         `json:"state"`
	At     *time.Time        `json:"at,omitempty"`
	Note   *string           `json:"note,omitempty"`
}

// BuildTimeline projects the order status and its history onto the
// fulfillment stages. A cancelled order gets an exclusive view: a single
// terminal cancelled step and no pipeline stages at all. For live orders
// the stage at the current index counts as completed once a history entry
// records it; without one it is still in progress.
func BuildTimeline(status enums.OrderStatus, history []models.OrderStatusHistory) ([]TimelineStep, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order carries an unknown status")
	}

	reached := historyIndex(history)

	if status == enums.OrderStatusCancelled {
		return cancelledTimeline(reached), nil
	}

	current, _ := status.StageIndex()
	steps := make([]TimelineStep, 0, len(enums.OrderStages))
	for i, stage := range enums.OrderStages {
		step := TimelineStep{Status: stage}
		entry, recorded := reached[stage]
		switch {
		case i < current:
			step.State = StepCompleted
		case i == current && recorded:
			step.State = StepCompleted
		case i == current:
			step.State = StepCurrent
		default:
			step.State = StepUpcoming
		}
		if recorded && step.State != StepUpcoming {
			at := entry.CreatedAt
			step.At = &at
			step.Note = entry.Note
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func cancelledTimeline(reached map[enums.OrderStatus]models.OrderStatusHistory) []TimelineStep {
	cancelled := TimelineStep{Status: enums.OrderStatusCancelled, State: StepCurrent}
	if entry, ok := reached[enums.OrderStatusCancelled]; ok {
		at := entry.CreatedAt
		cancelled.At = &at
		cancelled.Note = entry.Note
	}
	return []TimelineStep{cancelled}
}

// historyIndex keeps the latest history entry per status.
func historyIndex(history []models.OrderStatusHistory) map[enums.OrderStatus]models.OrderStatusHistory {
	index := make(map[enums.OrderStatus]models.OrderStatusHistory, len(history))
	for _, entry := range history {
		existing, ok := index[entry.Status]
		if !ok || entry.CreatedAt.After(existing.CreatedAt) {
			index[entry.Status] = entry
		}
	}
	return index
}
