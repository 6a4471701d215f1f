package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Region is a geographic area researchers are dispatched to.
type Region struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description,omitempty"`
	Coordinates *types.JSONText `db:"coordinates" json:"coordinates,omitempty"`
	City        string          `db:"city" json:"city"`
	State       string          `db:"state" json:"state"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// GeoPoint is a latitude/longitude pair, used for region centres and submission locations.
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}
