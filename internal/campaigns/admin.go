package campaigns

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/FieldScope/FS-Backend/internal/db"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
)

// Admin CRUD. Deletion is a soft delete everywhere: the disabled flag is
// what the eligibility engine enforces, so rows are kept for the response
// audit trail.

// AdminListCampaigns returns every campaign, disabled ones included.
func AdminListCampaigns(w http.ResponseWriter, r *http.Request) {
	var campaigns []Campaign
	if err := db.DB.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		http.Error(w, "Failed to fetch campaigns: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaigns)
}

// AdminGetCampaign returns one campaign by id regardless of disabled state,
// with its areas for the edit form.
func AdminGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaign_id")

	var campaign Campaign
	if err := db.DB.Preload("Areas").First(&campaign, "id = ?", campaignID).Error; err != nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var campaign Campaign
	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if campaign.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	if err := db.DB.Create(&campaign).Error; err != nil {
		http.Error(w, "Failed to create campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

func UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaign_id")

	var campaign Campaign
	if err := db.DB.First(&campaign, "id = ?", campaignID).Error; err != nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	var updates struct {
		Name        *string    `json:"name,omitempty"`
		Description *string    `json:"description,omitempty"`
		Open        *bool      `json:"open,omitempty"`
		InviteCode  *string    `json:"invite_code,omitempty"`
		StartsAt    *time.Time `json:"starts_at,omitempty"`
		EndsAt      *time.Time `json:"ends_at,omitempty"`
		Tags        *[]string  `json:"tags,omitempty"`
		Disabled    *bool      `json:"disabled,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updateMap := make(map[string]interface{})
	if updates.Name != nil {
		updateMap["name"] = *updates.Name
	}
	if updates.Description != nil {
		updateMap["description"] = *updates.Description
	}
	if updates.Open != nil {
		updateMap["open"] = *updates.Open
	}
	if updates.InviteCode != nil {
		updateMap["invite_code"] = *updates.InviteCode
	}
	if updates.StartsAt != nil {
		updateMap["starts_at"] = *updates.StartsAt
	}
	if updates.EndsAt != nil {
		updateMap["ends_at"] = *updates.EndsAt
	}
	if updates.Tags != nil {
		updateMap["tags"] = pq.StringArray(*updates.Tags)
	}
	if updates.Disabled != nil {
		updateMap["disabled"] = *updates.Disabled
	}

	if err := db.DB.Model(&campaign).Updates(updateMap).Error; err != nil {
		http.Error(w, "Failed to update campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaign_id")

	var campaign Campaign
	if err := db.DB.First(&campaign, "id = ?", campaignID).Error; err != nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	if err := db.DB.Model(&campaign).Update("disabled", true).Error; err != nil {
		http.Error(w, "Failed to disable campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Campaign disabled")
}

func AdminListAreas(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&Area{})
	if campaignID := r.URL.Query().Get("campaign_id"); campaignID != "" {
		query = query.Where("campaign_id = ?", campaignID)
	}

	var areas []Area
	if err := query.Order("created_at DESC").Find(&areas).Error; err != nil {
		http.Error(w, "Failed to fetch areas: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(areas)
}

func AdminGetArea(w http.ResponseWriter, r *http.Request) {
	areaID := chi.URLParam(r, "area_id")

	var area Area
	if err := db.DB.Preload("POIs").First(&area, "id = ?", areaID).Error; err != nil {
		http.Error(w, "Area not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(area)
}

func CreateArea(w http.ResponseWriter, r *http.Request) {
	var area Area
	if err := json.NewDecoder(r.Body).Decode(&area); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if area.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	if len(area.Polygon) < 3 {
		http.Error(w, "Polygon must have at least 3 vertices", http.StatusBadRequest)
		return
	}

	var campaign Campaign
	if err := db.DB.First(&campaign, "id = ?", area.CampaignID).Error; err != nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	if err := db.DB.Create(&area).Error; err != nil {
		http.Error(w, "Failed to create area: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(area)
}

func UpdateArea(w http.ResponseWriter, r *http.Request) {
	areaID := chi.URLParam(r, "area_id")

	var area Area
	if err := db.DB.First(&area, "id = ?", areaID).Error; err != nil {
		http.Error(w, "Area not found", http.StatusNotFound)
		return
	}

	var updates struct {
		Name     *string  `json:"name,omitempty"`
		Polygon  *Polygon `json:"polygon,omitempty"`
		Disabled *bool    `json:"disabled,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updateMap := make(map[string]interface{})
	if updates.Name != nil {
		updateMap["name"] = *updates.Name
	}
	if updates.Polygon != nil {
		if len(*updates.Polygon) < 3 {
			http.Error(w, "Polygon must have at least 3 vertices", http.StatusBadRequest)
			return
		}
		updateMap["polygon"] = *updates.Polygon
	}
	if updates.Disabled != nil {
		updateMap["disabled"] = *updates.Disabled
	}

	if err := db.DB.Model(&area).Updates(updateMap).Error; err != nil {
		http.Error(w, "Failed to update area: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(area)
}

// DeleteArea disables the area and cascade-disables its POIs so no task
// underneath stays respondable through a stale POI row.
func DeleteArea(w http.ResponseWriter, r *http.Request) {
	areaID := chi.URLParam(r, "area_id")

	var area Area
	if err := db.DB.First(&area, "id = ?", areaID).Error; err != nil {
		http.Error(w, "Area not found", http.StatusNotFound)
		return
	}

	if err := db.DB.Model(&area).Update("disabled", true).Error; err != nil {
		http.Error(w, "Failed to disable area: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := db.DB.Model(&PointOfInterest{}).Where("area_id = ?", area.ID).
		Update("disabled", true).Error; err != nil {
		http.Error(w, "Failed to disable area POIs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Area disabled")
}

func AdminListPOIs(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&PointOfInterest{})
	if areaID := r.URL.Query().Get("area_id"); areaID != "" {
		query = query.Where("area_id = ?", areaID)
	}

	var pois []PointOfInterest
	if err := query.Order("created_at DESC").Find(&pois).Error; err != nil {
		http.Error(w, "Failed to fetch POIs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pois)
}

func AdminGetPOI(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poi_id")

	var poi PointOfInterest
	if err := db.DB.Preload("Tasks").First(&poi, "id = ?", poiID).Error; err != nil {
		http.Error(w, "POI not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(poi)
}

// CreatePOI gates placement on the owning area's polygon: a POI outside
// its area would never accept a submission anyway.
func CreatePOI(w http.ResponseWriter, r *http.Request) {
	var poi PointOfInterest
	if err := json.NewDecoder(r.Body).Decode(&poi); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if poi.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	var area Area
	if err := db.DB.First(&area, "id = ?", poi.AreaID).Error; err != nil {
		http.Error(w, "Area not found", http.StatusNotFound)
		return
	}

	if !PointInPolygon(LatLng{Lat: poi.Lat, Lng: poi.Lng}, area.Polygon) {
		http.Error(w, "POI position is outside the area polygon", http.StatusBadRequest)
		return
	}

	if err := db.DB.Create(&poi).Error; err != nil {
		http.Error(w, "Failed to create POI: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(poi)
}

func UpdatePOI(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poi_id")

	var poi PointOfInterest
	if err := db.DB.First(&poi, "id = ?", poiID).Error; err != nil {
		http.Error(w, "POI not found", http.StatusNotFound)
		return
	}

	var updates struct {
		Name     *string  `json:"name,omitempty"`
		Lat      *float64 `json:"lat,omitempty"`
		Lng      *float64 `json:"lng,omitempty"`
		RadiusM  *float64 `json:"radius_m,omitempty"`
		Disabled *bool    `json:"disabled,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	newLat, newLng := poi.Lat, poi.Lng
	if updates.Lat != nil {
		newLat = *updates.Lat
	}
	if updates.Lng != nil {
		newLng = *updates.Lng
	}
	if updates.Lat != nil || updates.Lng != nil {
		var area Area
		if err := db.DB.First(&area, "id = ?", poi.AreaID).Error; err != nil {
			http.Error(w, "Area not found", http.StatusNotFound)
			return
		}
		if !PointInPolygon(LatLng{Lat: newLat, Lng: newLng}, area.Polygon) {
			http.Error(w, "POI position is outside the area polygon", http.StatusBadRequest)
			return
		}
	}

	updateMap := make(map[string]interface{})
	if updates.Name != nil {
		updateMap["name"] = *updates.Name
	}
	if updates.Lat != nil {
		updateMap["lat"] = *updates.Lat
	}
	if updates.Lng != nil {
		updateMap["lng"] = *updates.Lng
	}
	if updates.RadiusM != nil {
		updateMap["radius_m"] = *updates.RadiusM
	}
	if updates.Disabled != nil {
		updateMap["disabled"] = *updates.Disabled
	}

	if err := db.DB.Model(&poi).Updates(updateMap).Error; err != nil {
		http.Error(w, "Failed to update POI: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(poi)
}

func DeletePOI(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poi_id")

	var poi PointOfInterest
	if err := db.DB.First(&poi, "id = ?", poiID).Error; err != nil {
		http.Error(w, "POI not found", http.StatusNotFound)
		return
	}

	if err := db.DB.Model(&poi).Update("disabled", true).Error; err != nil {
		http.Error(w, "Failed to disable POI: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "POI disabled")
}

func AdminListTasks(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&Task{})
	if poiID := r.URL.Query().Get("poi_id"); poiID != "" {
		query = query.Where("poi_id = ?", poiID)
	}

	var tasks []Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		http.Error(w, "Failed to fetch tasks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

func AdminGetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	var task Task
	if err := db.DB.First(&task, "id = ?", taskID).Error; err != nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

func CreateTask(w http.ResponseWriter, r *http.Request) {
	var task Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if task.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}
	if task.ResponseLimit != nil && *task.ResponseLimit < 1 {
		http.Error(w, "response_limit must be at least 1", http.StatusBadRequest)
		return
	}
	if task.ResponseLimitInterval != nil && *task.ResponseLimitInterval < 1 {
		http.Error(w, "response_limit_interval must be at least 1 minute", http.StatusBadRequest)
		return
	}

	var poi PointOfInterest
	if err := db.DB.First(&poi, "id = ?", task.POIID).Error; err != nil {
		http.Error(w, "POI not found", http.StatusNotFound)
		return
	}

	if err := db.DB.Create(&task).Error; err != nil {
		http.Error(w, "Failed to create task: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

func UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	var task Task
	if err := db.DB.First(&task, "id = ?", taskID).Error; err != nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	var updates struct {
		Title                 *string    `json:"title,omitempty"`
		Description           *string    `json:"description,omitempty"`
		Survey                *JSONDoc   `json:"survey,omitempty"`
		ResponseLimit         *int       `json:"response_limit,omitempty"`
		ResponseLimitInterval *int       `json:"response_limit_interval,omitempty"`
		AvailableFrom         *time.Time `json:"available_from,omitempty"`
		AvailableTo           *time.Time `json:"available_to,omitempty"`
		Disabled              *bool      `json:"disabled,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updateMap := make(map[string]interface{})
	if updates.Title != nil {
		updateMap["title"] = *updates.Title
	}
	if updates.Description != nil {
		updateMap["description"] = *updates.Description
	}
	if updates.Survey != nil {
		updateMap["survey"] = *updates.Survey
	}
	if updates.ResponseLimit != nil {
		updateMap["response_limit"] = *updates.ResponseLimit
	}
	if updates.ResponseLimitInterval != nil {
		updateMap["response_limit_interval"] = *updates.ResponseLimitInterval
	}
	if updates.AvailableFrom != nil {
		updateMap["available_from"] = *updates.AvailableFrom
	}
	if updates.AvailableTo != nil {
		updateMap["available_to"] = *updates.AvailableTo
	}
	if updates.Disabled != nil {
		updateMap["disabled"] = *updates.Disabled
	}

	if err := db.DB.Model(&task).Updates(updateMap).Error; err != nil {
		http.Error(w, "Failed to update task: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

func DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	var task Task
	if err := db.DB.First(&task, "id = ?", taskID).Error; err != nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	if err := db.DB.Model(&task).Update("disabled", true).Error; err != nil {
		http.Error(w, "Failed to disable task: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Task disabled")
}

// AdminListTaskResponses returns the full response audit for a task.
func AdminListTaskResponses(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	var task Task
	if err := db.DB.First(&task, "id = ?", taskID).Error; err != nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	var responses []UserTaskResponse
	if err := db.DB.Where("task_id = ?", task.ID).
		Order("created_at ASC").Find(&responses).Error; err != nil {
		http.Error(w, "Failed to fetch responses: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

type campaignStats struct {
	CampaignID    string `json:"campaign_id"`
	CampaignName  string `json:"campaign_name"`
	AreaCount     int64  `json:"areas"`
	TaskCount     int64  `json:"tasks"`
	ResponseCount int64  `json:"responses"`
}

// AdminStats aggregates response volume per campaign, optionally limited
// to repeated id params (?id=uuid&id=uuid).
func AdminStats(w http.ResponseWriter, r *http.Request) {
	query := `
		SELECT c.id AS campaign_id,
		       c.name AS campaign_name,
		       COUNT(DISTINCT a.id) AS area_count,
		       COUNT(DISTINCT t.id) AS task_count,
		       COUNT(resp.id) AS response_count
		FROM campaigns.campaigns c
		LEFT JOIN campaigns.areas a ON a.campaign_id = c.id
		LEFT JOIN campaigns.points_of_interest p ON p.area_id = a.id
		LEFT JOIN campaigns.tasks t ON t.poi_id = p.id
		LEFT JOIN campaigns.user_task_responses resp ON resp.task_id = t.id
	`
	var args []interface{}
	if ids := r.URL.Query()["id"]; len(ids) > 0 {
		query += ` WHERE c.id = ANY(?)`
		args = append(args, pq.Array(ids))
	}
	query += ` GROUP BY c.id, c.name ORDER BY c.name`

	rows, err := db.DB.WithContext(r.Context()).Raw(query, args...).Rows()
	if err != nil {
		http.Error(w, "Stats query failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	stats := []campaignStats{}
	for rows.Next() {
		var s campaignStats
		if err := rows.Scan(&s.CampaignID, &s.CampaignName, &s.AreaCount, &s.TaskCount, &s.ResponseCount); err != nil {
			http.Error(w, fmt.Sprintf("scan stats: %v", err), http.StatusInternalServerError)
			return
		}
		stats = append(stats, s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
