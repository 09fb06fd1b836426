package campaigns

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// LatLng is a WGS84 coordinate. On the wire it accepts both the compact
// [lat, lng] pair and the {"lat":..,"lng":..} object the map UI sends, and
// always marshals as a pair.
type LatLng struct {
	Lat float64
	Lng float64
}

func (p LatLng) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lat, p.Lng})
}

func (p *LatLng) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("position pair must have exactly 2 elements, got %d", len(pair))
		}
		p.Lat, p.Lng = pair[0], pair[1]
		return nil
	}

	var obj struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("position must be [lat,lng] or {lat,lng}")
	}
	if obj.Lat == nil || obj.Lng == nil {
		return fmt.Errorf("position must include lat and lng")
	}
	p.Lat, p.Lng = *obj.Lat, *obj.Lng
	return nil
}

// Polygon is an ordered vertex ring, implicitly closed. Stored as JSONB so
// AutoMigrate handles it and the stored form matches the wire form.
type Polygon []LatLng

func (p Polygon) Value() (driver.Value, error) {
	if p == nil {
		p = Polygon{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Polygon) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported polygon column type %T", src)
	}
}

func (Polygon) GormDataType() string { return "jsonb" }

// JSONDoc holds an opaque JSON document (survey definitions, survey answers)
// in a JSONB column without interpreting it.
type JSONDoc json.RawMessage

func (d JSONDoc) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *JSONDoc) UnmarshalJSON(b []byte) error {
	*d = append((*d)[0:0], b...)
	return nil
}

func (d JSONDoc) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}

func (d *JSONDoc) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		*d = append((*d)[0:0], v...)
		return nil
	case string:
		*d = JSONDoc(v)
		return nil
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

func (JSONDoc) GormDataType() string { return "jsonb" }

// Campaign is the top-level grouping of a data-collection effort.
// Disabled is a soft delete; nothing under a disabled campaign accepts
// submissions.
type Campaign struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Open        bool           `gorm:"default:true" json:"open"`
	InviteCode  string         `json:"-"`
	StartsAt    *time.Time     `json:"starts_at,omitempty"`
	EndsAt      *time.Time     `json:"ends_at,omitempty"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	Disabled    bool           `gorm:"default:false" json:"disabled"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Areas []Area `gorm:"foreignKey:CampaignID" json:"areas,omitempty"`
}

func (Campaign) TableName() string { return "campaigns.campaigns" }

type Area struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Name       string    `gorm:"not null" json:"name"`
	Polygon    Polygon   `gorm:"type:jsonb" json:"polygon"`
	Disabled   bool      `gorm:"default:false" json:"disabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Campaign Campaign          `gorm:"foreignKey:CampaignID" json:"-"`
	POIs     []PointOfInterest `gorm:"foreignKey:AreaID" json:"pois,omitempty"`
}

func (Area) TableName() string { return "campaigns.areas" }

// PointOfInterest marks where tasks are offered. RadiusM is informational
// for the map UI; submission gating is against the owning area's polygon.
type PointOfInterest struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	AreaID   uuid.UUID `gorm:"type:uuid;not null;index" json:"area_id"`
	Name     string    `gorm:"not null" json:"name"`
	Lat      float64   `gorm:"not null" json:"lat"`
	Lng      float64   `gorm:"not null" json:"lng"`
	RadiusM  float64   `gorm:"default:50" json:"radius_m"`
	Disabled bool      `gorm:"default:false" json:"disabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Area  Area   `gorm:"foreignKey:AreaID" json:"-"`
	Tasks []Task `gorm:"foreignKey:POIID" json:"tasks,omitempty"`
}

func (PointOfInterest) TableName() string { return "campaigns.points_of_interest" }

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	POIID       uuid.UUID `gorm:"column:poi_id;type:uuid;not null;index" json:"poi_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Survey      JSONDoc   `gorm:"type:jsonb" json:"survey"`

	// Optional constraints; either, both, or neither may apply.
	ResponseLimit         *int       `json:"response_limit,omitempty"`
	ResponseLimitInterval *int       `json:"response_limit_interval,omitempty"` // minutes
	AvailableFrom         *time.Time `json:"available_from,omitempty"`
	AvailableTo           *time.Time `json:"available_to,omitempty"`

	Disabled  bool      `gorm:"default:false" json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	POI PointOfInterest `gorm:"foreignKey:POIID" json:"-"`
}

func (Task) TableName() string { return "campaigns.tasks" }

// UserTaskResponse is an append-only audit record. Rows are never updated
// or deleted; "last response time" is derived by scanning rows.
type UserTaskResponse struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TaskID   uuid.UUID `gorm:"type:uuid;not null;index:idx_responses_task_user,priority:1" json:"task_id"`
	UserID   string    `gorm:"not null;index:idx_responses_task_user,priority:2" json:"user_id"`
	Response JSONDoc   `gorm:"type:jsonb" json:"response"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`

	CreatedAt time.Time `gorm:"index:idx_responses_task_user,priority:3" json:"created_at"`
}

func (UserTaskResponse) TableName() string { return "campaigns.user_task_responses" }

type Membership struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_campaign_user" json:"campaign_id"`
	UserID     string    `gorm:"not null;uniqueIndex:idx_membership_campaign_user" json:"user_id"`
	JoinedAt   time.Time `json:"joined_at"`
}

func (Membership) TableName() string { return "campaigns.memberships" }
