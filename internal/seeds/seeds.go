package seeds

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/FieldScope/FS-Backend/internal/campaigns"
	"github.com/FieldScope/FS-Backend/internal/db"
	"github.com/goccy/go-yaml"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Seed fixtures are YAML so the demo campaign is editable without touching
// Go. Seeding is idempotent per campaign name: existing campaigns are left
// alone.

type seedTask struct {
	Title                 string                 `yaml:"title"`
	Description           string                 `yaml:"description"`
	Survey                map[string]interface{} `yaml:"survey"`
	ResponseLimit         *int                   `yaml:"response_limit"`
	ResponseLimitInterval *int                   `yaml:"response_limit_interval"`
}

type seedPOI struct {
	Name    string     `yaml:"name"`
	Lat     float64    `yaml:"lat"`
	Lng     float64    `yaml:"lng"`
	RadiusM float64    `yaml:"radius_m"`
	Tasks   []seedTask `yaml:"tasks"`
}

type seedArea struct {
	Name    string       `yaml:"name"`
	Polygon [][2]float64 `yaml:"polygon"`
	POIs    []seedPOI    `yaml:"pois"`
}

type seedCampaign struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Open        bool       `yaml:"open"`
	InviteCode  string     `yaml:"invite_code"`
	Tags        []string   `yaml:"tags"`
	Areas       []seedArea `yaml:"areas"`
}

type seedFile struct {
	Campaigns []seedCampaign `yaml:"campaigns"`
}

func SeedFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, sc := range file.Campaigns {
		if err := seedCampaignTree(sc); err != nil {
			return fmt.Errorf("seed campaign %q: %w", sc.Name, err)
		}
	}
	return nil
}

func seedCampaignTree(sc seedCampaign) error {
	var existing campaigns.Campaign
	err := db.DB.First(&existing, "name = ?", sc.Name).Error
	if err == nil {
		log.Printf("Campaign %q already seeded, skipping", sc.Name)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return db.DB.Transaction(func(tx *gorm.DB) error {
		campaign := campaigns.Campaign{
			Name:        sc.Name,
			Description: sc.Description,
			Open:        sc.Open,
			InviteCode:  sc.InviteCode,
			Tags:        pq.StringArray(sc.Tags),
		}
		if err := tx.Create(&campaign).Error; err != nil {
			return err
		}

		for _, sa := range sc.Areas {
			polygon := make(campaigns.Polygon, 0, len(sa.Polygon))
			for _, v := range sa.Polygon {
				polygon = append(polygon, campaigns.LatLng{Lat: v[0], Lng: v[1]})
			}

			area := campaigns.Area{
				CampaignID: campaign.ID,
				Name:       sa.Name,
				Polygon:    polygon,
			}
			if err := tx.Create(&area).Error; err != nil {
				return err
			}

			for _, sp := range sa.POIs {
				if !campaigns.PointInPolygon(campaigns.LatLng{Lat: sp.Lat, Lng: sp.Lng}, polygon) {
					return fmt.Errorf("POI %q lies outside area %q", sp.Name, sa.Name)
				}

				poi := campaigns.PointOfInterest{
					AreaID:  area.ID,
					Name:    sp.Name,
					Lat:     sp.Lat,
					Lng:     sp.Lng,
					RadiusM: sp.RadiusM,
				}
				if err := tx.Create(&poi).Error; err != nil {
					return err
				}

				for _, st := range sp.Tasks {
					survey, err := json.Marshal(st.Survey)
					if err != nil {
						return fmt.Errorf("encode survey for task %q: %w", st.Title, err)
					}

					task := campaigns.Task{
						POIID:                 poi.ID,
						Title:                 st.Title,
						Description:           st.Description,
						Survey:                campaigns.JSONDoc(survey),
						ResponseLimit:         st.ResponseLimit,
						ResponseLimitInterval: st.ResponseLimitInterval,
					}
					if err := tx.Create(&task).Error; err != nil {
						return err
					}
				}
			}
		}

		log.Printf("Seeded campaign %q (%d areas)", sc.Name, len(sc.Areas))
		return nil
	})
}
