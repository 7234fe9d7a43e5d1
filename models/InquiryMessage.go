package models

import "gorm.io/gorm"

// InquiryMessage is a single message row in the current storage scheme.
// Sender is denormalized because managers can change across an inquiry's
// lifetime; rows written before the column existed leave it empty and the
// reader attributes them by SenderID.
type InquiryMessage struct {
	gorm.Model
	InquiryID uint   `json:"inquiry_id" gorm:"index;not null"`
	SenderID  uint   `json:"sender_id" gorm:"index"`
	Sender    string `json:"sender" gorm:"size:16"` // tenant | manager
	Message   string `json:"message" gorm:"type:text;not null"`
}
