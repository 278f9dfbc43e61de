package catalog

import "time"

// TagTypes is the closed set of valid tag types.
var TagTypes = []string{"digital", "physical", "illustration", "diary", "other"}

type Tag struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:10;not null;uniqueIndex:idx_tags_name" json:"name"`
	Type   string `gorm:"type:varchar(50);not null" json:"type"`
	Enable bool   `json:"enable"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func IsTagType(s string) bool {
	for _, t := range TagTypes {
		if t == s {
			return true
		}
	}
	return false
}
