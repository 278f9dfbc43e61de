package catalog

import "time"

// WorkCategories is the closed set of valid illustration categories.
var WorkCategories = []string{"illustration", "geometric", "alphabet", "daydream", "teatime", "daily", "other"}

type Work struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"size:100;not null;uniqueIndex:idx_works_title" json:"title"`
	Content  string `gorm:"size:500" json:"content"`
	Category string `gorm:"type:varchar(50);not null" json:"category"`

	Tags []Tag `gorm:"many2many:work_tags;constraint:OnDelete:CASCADE" json:"tags"`

	// Whether the work is publicly posted.
	Post bool `json:"post"`

	// Ordered asset references, coordinator-owned. At least one on create.
	Images []string `gorm:"serializer:json" json:"images"`

	Views int    `gorm:"not null;default:0" json:"views"`
	Likes []uint `gorm:"serializer:json" json:"likes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func IsWorkCategory(s string) bool {
	for _, c := range WorkCategories {
		if c == s {
			return true
		}
	}
	return false
}

// Liked reports whether the given user already likes the work.
func (w *Work) Liked(userID uint) bool {
	for _, id := range w.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
