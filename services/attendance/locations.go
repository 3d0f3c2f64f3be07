package attendance

import (
	"math"

	"sekolahku_go/models"
	"sekolahku_go/utils"

	"gorm.io/gorm"
)

// LocationRegistry answers geofence membership questions for the set of
// active authorized locations.
type LocationRegistry interface {
	ListActive() ([]models.AttendanceLocation, error)
	// Match returns the authorized location containing (lat, lng), or nil
	// when the point lies outside every active geofence. The boundary is
	// inclusive: distance equal to the radius still matches.
	Match(lat, lng float64) (*models.AttendanceLocation, error)
}

type gormLocationRegistry struct {
	db *gorm.DB
}

// NewLocationRegistry returns a LocationRegistry backed by the
// attendance_locations table.
func NewLocationRegistry(db *gorm.DB) LocationRegistry {
	return &gormLocationRegistry{db: db}
}

func (r *gormLocationRegistry) ListActive() ([]models.AttendanceLocation, error) {
	var locations []models.AttendanceLocation
	if err := r.db.Where("is_active = ?", true).Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// Match picks the nearest containing geofence so the result is deterministic
// even when authorized areas overlap.
func (r *gormLocationRegistry) Match(lat, lng float64) (*models.AttendanceLocation, error) {
	locations, err := r.ListActive()
	if err != nil {
		return nil, err
	}
	return MatchLocation(locations, lat, lng), nil
}

// MatchLocation scans candidates and returns the nearest one whose geofence
// contains the point, or nil when none do. The boundary comparison rounds
// the distance to whole meters: GPS fixes carry meter-scale noise anyway,
// and a point sitting right on the fence must count as inside.
func MatchLocation(candidates []models.AttendanceLocation, lat, lng float64) *models.AttendanceLocation {
	var best *models.AttendanceLocation
	bestDist := 0.0
	for i := range candidates {
		loc := &candidates[i]
		if loc.RadiusMeters <= 0 {
			continue
		}
		dist := utils.HaversineDistance(lat, lng, loc.Latitude, loc.Longitude)
		if math.Round(dist) <= loc.RadiusMeters {
			if best == nil || dist < bestDist {
				best = loc
				bestDist = dist
			}
		}
	}
	return best
}
