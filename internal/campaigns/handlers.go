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
)

func enabledOnly(db *gorm.DB) *gorm.DB {
	return db.Where("disabled = false")
}

// ListCampaigns returns all enabled campaigns. Invite codes are never
// serialized, so invite-only campaigns are safe to list.
func ListCampaigns(w http.ResponseWriter, r *http.Request) {
	var campaigns []Campaign

	query := db.DB.Where("disabled = false")
	if tag := r.URL.Query().Get("tag"); tag != "" {
		query = query.Where("? = ANY(tags)", tag)
	}

	if err := query.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		http.Error(w, "Failed to fetch campaigns: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaigns)
}

// GetCampaign returns a single enabled campaign with its enabled areas.
func GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaign_id")

	var campaign Campaign
	err := db.DB.Preload("Areas", enabledOnly).
		First(&campaign, "id = ? AND disabled = false", campaignID).Error
	if err != nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

// GetArea returns a single enabled area with its enabled POIs.
func GetArea(w http.ResponseWriter, r *http.Request) {
	areaID := chi.URLParam(r, "area_id")

	var area Area
	err := db.DB.Preload("POIs", enabledOnly).
		First(&area, "id = ? AND disabled = false", areaID).Error
	if err != nil {
		http.Error(w, "Area not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(area)
}

// GetPOI returns a single enabled POI with its enabled tasks.
func GetPOI(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poi_id")

	var poi PointOfInterest
	err := db.DB.Preload("Tasks", enabledOnly).
		First(&poi, "id = ? AND disabled = false", poiID).Error
	if err != nil {
		http.Error(w, "POI not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(poi)
}

// GetTask returns the task definition for rendering the survey. A task
// anywhere under a disabled level reads as not found rather than leaking
// its existence.
func GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	task, err := LoadTaskChain(db.DB, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch task: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if chainDisabled(task) {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// JoinCampaign records a membership. Invite-only campaigns require the
// matching invite code; joining twice is a no-op.
func JoinCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaign_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	var campaign Campaign
	if err := db.DB.First(&campaign, "id = ? AND disabled = false", campaignID).Error; err != nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	var input struct {
		InviteCode string `json:"invite_code"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&input)
	}

	if !campaign.Open && input.InviteCode != campaign.InviteCode {
		http.Error(w, "Invalid invite code", http.StatusForbidden)
		return
	}

	membership := Membership{
		CampaignID: campaign.ID,
		UserID:     userID,
		JoinedAt:   time.Now(),
	}
	err := db.DB.Where("campaign_id = ? AND user_id = ?", campaign.ID, userID).
		FirstOrCreate(&membership).Error
	if err != nil {
		http.Error(w, "Failed to join campaign", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(membership)
}

// MyTaskResponses returns the caller's own response history for a task.
func MyTaskResponses(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	var responses []UserTaskResponse
	err := db.DB.Where("task_id = ? AND user_id = ?", taskID, userID).
		Order("created_at ASC").Find(&responses).Error
	if err != nil {
		http.Error(w, "Failed to fetch responses: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}
