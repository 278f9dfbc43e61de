package catalog

import "time"

type Series struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:10;not null;uniqueIndex:idx_series_name" json:"name"`
	Description string `gorm:"size:100" json:"description"`

	// Single cover asset reference, optional on create. Coordinator-owned.
	Cover string `json:"cover"`

	// Ordered references to the representative works of the series.
	WorkIDs []uint `gorm:"serializer:json" json:"work_ids"`

	// Whether the series is shown on the landing page.
	Post bool `json:"post"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
