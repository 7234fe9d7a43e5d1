package models

import "gorm.io/gorm"

// InquiryAttachment is an uploaded file tied to an inquiry. MessageID is set
// only when the client uploads against a known structured row; legacy-era
// attachments have none and the thread reader correlates them by upload time
// instead.
type InquiryAttachment struct {
	gorm.Model
	InquiryID  uint   `json:"inquiry_id" gorm:"index;not null"`
	MessageID  *uint  `json:"message_id" gorm:"index"`
	UploadedBy uint   `json:"uploaded_by" gorm:"index"`
	FileName   string `json:"file_name" gorm:"size:256"`
	FileSize   int64  `json:"file_size"`
	MimeType   string `json:"mime_type" gorm:"size:128"`
	FileType   string `json:"file_type" gorm:"size:32"` // image, document, other
	URL        string `json:"url" gorm:"size:512"`
}
