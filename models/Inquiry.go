package models

import (
	"time"

	"gorm.io/gorm"
)

// Inquiry is a tenant-to-management conversation about a unit. Two message
// schemes coexist: rows in InquiryMessages are the current scheme, while the
// Message / ResponseMessage columns hold marker-separated history from the
// era when every exchange was appended into these two text blobs. The append
// path still writes both so that not-yet-migrated readers keep working.
type Inquiry struct {
	gorm.Model
	TenantID        uint                `json:"tenant_id" gorm:"index;not null"`
	Tenant          User                `json:"tenant" gorm:"foreignKey:TenantID;references:ID"`
	PropertyID      *uint               `json:"property_id" gorm:"index"`
	Property        *Property           `json:"property" gorm:"foreignKey:PropertyID;references:ID"`
	ManagerID       *uint               `json:"manager_id" gorm:"index"`
	Subject         string              `json:"subject" gorm:"size:200"`
	Category        string              `json:"category" gorm:"size:32;default:general;index"`     // maintenance, billing, lease, general, other
	Status          string              `json:"status" gorm:"type:varchar(20);default:open;index"` // open, in_progress, resolved, closed
	Message         string              `json:"message" gorm:"type:text"`          // legacy tenant column
	ResponseMessage string              `json:"response_message" gorm:"type:text"` // legacy manager column
	Messages        []InquiryMessage    `json:"messages" gorm:"foreignKey:InquiryID;references:ID"`
	Attachments     []InquiryAttachment `json:"attachments" gorm:"foreignKey:InquiryID;references:ID"`
	Source          string              `json:"source" gorm:"size:32;default:portal"` // portal, legacy_import
	LastActivityAt  time.Time           `json:"last_activity_at" gorm:"index"`
	ResolvedAt      *time.Time          `json:"resolved_at"`
}
