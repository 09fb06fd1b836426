package campaigns

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Reason is the machine-readable outcome the contributor UI keys its
// toasts off. Every ineligible decision carries exactly one.
type Reason string

const (
	ReasonUnavailable       Reason = "unavailable"
	ReasonOutsideArea       Reason = "outside_area"
	ReasonLimitReached      Reason = "limit_reached"
	ReasonCooldownActive    Reason = "cooldown_active"
	ReasonNotYetAvailable   Reason = "not_yet_available"
	ReasonNoLongerAvailable Reason = "no_longer_available"
)

type Decision struct {
	Eligible bool
	Reason   Reason
	// WaitMinutes is set only for cooldown failures: remaining wait,
	// rounded up to the nearest minute.
	WaitMinutes int
}

func eligible() Decision { return Decision{Eligible: true} }

func ineligible(r Reason) Decision { return Decision{Reason: r} }

// Message is the human-readable counterpart of Reason.
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonUnavailable:
		return "This task is currently unavailable"
	case ReasonOutsideArea:
		return "You are outside the task's area"
	case ReasonLimitReached:
		return "You have reached the response limit for this task"
	case ReasonCooldownActive:
		return "Please wait before responding to this task again"
	case ReasonNotYetAvailable:
		return "This task is not yet available"
	case ReasonNoLongerAvailable:
		return "This task is no longer available"
	default:
		return ""
	}
}

// LoadTaskChain fetches a task with its POI, area and campaign in one
// traversal. Returns gorm.ErrRecordNotFound when the task does not exist.
func LoadTaskChain(db *gorm.DB, taskID string) (*Task, error) {
	var task Task
	err := db.Preload("POI.Area.Campaign").First(&task, "id = ?", taskID).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// chainDisabled reports whether any level of the hierarchy is soft-deleted.
// The disabled flag cascades conceptually; it is enforced here at query
// time, not by triggers.
func chainDisabled(t *Task) bool {
	return t.Disabled || t.POI.Disabled || t.POI.Area.Disabled || t.POI.Area.Campaign.Disabled
}

// EvaluateSubmission decides whether a response submission is accepted.
// It is a pure function over already-fetched state: the task chain (from
// LoadTaskChain), the reported position, the user's full response history
// for this task, and the clock. Checks run in order and the first failure
// is terminal.
func EvaluateSubmission(task *Task, pos LatLng, history []time.Time, now time.Time) Decision {
	if chainDisabled(task) {
		return ineligible(ReasonUnavailable)
	}

	if !PointInPolygon(pos, task.POI.Area.Polygon) {
		return ineligible(ReasonOutsideArea)
	}

	if task.ResponseLimit != nil && len(history) >= *task.ResponseLimit {
		return ineligible(ReasonLimitReached)
	}

	if task.ResponseLimitInterval != nil && len(history) > 0 {
		last := history[0]
		for _, t := range history[1:] {
			if t.After(last) {
				last = t
			}
		}
		readyAt := last.Add(time.Duration(*task.ResponseLimitInterval) * time.Minute)
		if now.Before(readyAt) {
			d := ineligible(ReasonCooldownActive)
			d.WaitMinutes = int(math.Ceil(readyAt.Sub(now).Minutes()))
			return d
		}
	}

	if task.AvailableFrom != nil && now.Before(*task.AvailableFrom) {
		return ineligible(ReasonNotYetAvailable)
	}

	if task.AvailableTo != nil && now.After(*task.AvailableTo) {
		return ineligible(ReasonNoLongerAvailable)
	}

	return eligible()
}
