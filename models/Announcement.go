package models

import (
	"time"

	"gorm.io/gorm"
)

// Announcement is a notice from management to tenants. PropertyID nil means
// the whole portfolio.
type Announcement struct {
	gorm.Model
	AuthorID    uint       `json:"authorID" gorm:"index;not null"`
	Author      User       `json:"author" gorm:"foreignKey:AuthorID;references:ID"`
	PropertyID  *uint      `json:"propertyID" gorm:"index"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Body        string     `json:"body" gorm:"type:text"`
	Pinned      bool       `json:"pinned" gorm:"default:false;index"`
	PublishedAt *time.Time `json:"publishedAt" gorm:"index"`
	ExpiresAt   *time.Time `json:"expiresAt" gorm:"index"`
}
