package campaigns

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/FieldScope/FS-Backend/internal/db"
	"github.com/FieldScope/FS-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errNotEligible rolls the submission transaction back without being a
// storage failure.
var errNotEligible = errors.New("submission not eligible")

// SubmitResponse accepts a task response if the eligibility checks pass.
//
// The history read and the insert run inside one transaction with the task
// row locked. The transaction runs at the default read-committed isolation
// on purpose: each statement reads a fresh snapshot, so once a waiter
// acquires the task-row lock its history read sees every insert the
// previous lock holder committed. Under repeatable read the waiter would
// keep its pre-lock snapshot and the race would reopen.
func SubmitResponse(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	var input struct {
		TaskResponse JSONDoc `json:"taskResponse"`
		Position     *LatLng `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(input.TaskResponse) == 0 || string(input.TaskResponse) == "null" {
		http.Error(w, "taskResponse is required", http.StatusBadRequest)
		return
	}
	if input.Position == nil {
		http.Error(w, "position is required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	var decision Decision
	var saved UserTaskResponse

	txErr := db.DB.Transaction(func(tx *gorm.DB) error {
		// Serialize submissions per task: the lock holder's insert is
		// visible to the next holder's reads.
		var locked Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "id = ?", taskID).Error; err != nil {
			return err
		}

		// Load the chain after the lock so constraint or disabled-flag
		// edits committed in the meantime are honored.
		task, err := LoadTaskChain(tx, taskID)
		if err != nil {
			return err
		}

		var history []time.Time
		if err := tx.Model(&UserTaskResponse{}).
			Where("task_id = ? AND user_id = ?", task.ID, userID).
			Order("created_at ASC").
			Pluck("created_at", &history).Error; err != nil {
			return err
		}

		decision = EvaluateSubmission(task, *input.Position, history, now)
		if !decision.Eligible {
			return errNotEligible
		}

		saved = UserTaskResponse{
			TaskID:   task.ID,
			UserID:   userID,
			Response: input.TaskResponse,
			Lat:      input.Position.Lat,
			Lng:      input.Position.Lng,
		}
		return tx.Create(&saved).Error
	})

	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		if errors.Is(txErr, errNotEligible) {
			writeDecision(w, decision)
			return
		}
		http.Error(w, "Failed to record response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(saved)
}

// writeDecision surfaces an eligibility failure as 403 with the
// machine-readable reason the UI keys off.
func writeDecision(w http.ResponseWriter, d Decision) {
	body := map[string]interface{}{
		"reason":  d.Reason,
		"message": d.Message(),
	}
	if d.Reason == ReasonCooldownActive {
		body["wait_minutes"] = d.WaitMinutes
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(body)
}
