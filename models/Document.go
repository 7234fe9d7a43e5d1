package models

import "gorm.io/gorm"

// Document is a file shared between management and a tenant outside any
// conversation, typically leases and invoices.
type Document struct {
	gorm.Model
	TenantID         *uint  `json:"tenantID" gorm:"index"`
	PropertyID       *uint  `json:"propertyID" gorm:"index"`
	UploadedBy       uint   `json:"uploadedBy" gorm:"index;not null"`
	Title            string `json:"title" gorm:"size:200"`
	FileName         string `json:"fileName" gorm:"size:256"`
	FileSize         int64  `json:"fileSize"`
	MimeType         string `json:"mimeType" gorm:"size:128"`
	Kind             string `json:"kind" gorm:"size:32;index"` // lease, notice, invoice, other
	URL              string `json:"url" gorm:"size:512"`
	SharedWithTenant *bool  `json:"sharedWithTenant"`
}
