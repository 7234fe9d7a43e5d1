package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is the in-app inbox entry behind the bell icon. Push delivery
// is separate and best-effort; this row is the durable record.
type Notification struct {
	gorm.Model
	UserID uint           `json:"userID" gorm:"index;not null"`
	Kind   string         `json:"kind" gorm:"size:50;index"` // inquiry_reply, maintenance_update, announcement, document_shared
	Title  string         `json:"title" gorm:"size:200"`
	Body   string         `json:"body" gorm:"type:text"`
	Data   datatypes.JSON `json:"data"` // e.g. {"inquiryID": 7}
	ReadAt *time.Time     `json:"readAt" gorm:"index"`
}
