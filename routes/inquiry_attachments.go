package routes

import (
	"fmt"
	"strings"
	"tenantdesk-server/models"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

// maxAttachmentBytes caps uploads at 15MB, matching the client side limit.
const maxAttachmentBytes = 15 * 1024 * 1024

// UploadInquiryAttachment stores a file against the inquiry. The upload time
// is what the thread reader uses to attach the file to the message sent right
// after it, so the row is created the moment the upload finishes.
func UploadInquiryAttachment(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	inquiry := getInquiryAuthorized(ctx)
	if inquiry == nil {
		return
	}

	var input UploadAttachmentInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.FileSize > maxAttachmentBytes {
		utils.CreateError(iris.StatusRequestEntityTooLarge, "Upload Error", "File exceeds the 15MB limit.", ctx)
		return
	}

	resourceType := "auto"
	if strings.HasPrefix(input.MimeType, "image/") {
		resourceType = "image"
	}

	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	publicID := fmt.Sprintf("inquiries/%d/%d_%s", inquiry.ID, timestamp, sanitizeFileName(input.FileName))

	urlMap := storage.UploadBase64File(input.Data, publicID, resourceType)
	if urlMap == nil || urlMap["url"] == "" {
		utils.CreateError(iris.StatusBadGateway, "Upload Error", "File upload failed.", ctx)
		return
	}

	attachment := models.InquiryAttachment{
		InquiryID:  inquiry.ID,
		MessageID:  input.MessageID,
		UploadedBy: claims.ID,
		FileName:   input.FileName,
		FileSize:   input.FileSize,
		MimeType:   input.MimeType,
		FileType:   fileTypeForMime(input.MimeType),
		URL:        urlMap["url"],
	}

	if dbErr := storage.DB.Create(&attachment).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	publishInquiryEvent(inquiry.ID, iris.Map{
		"type":         "attachment",
		"inquiryID":    inquiry.ID,
		"attachmentID": attachment.ID,
		"fileName":     attachment.FileName,
	})

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(attachment)
}

// GetInquiryAttachments lists the inquiry's attachments oldest first.
func GetInquiryAttachments(ctx iris.Context) {
	inquiry := getInquiryAuthorized(ctx)
	if inquiry == nil {
		return
	}

	var attachments []models.InquiryAttachment
	storage.DB.Where("inquiry_id = ?", inquiry.ID).Order("created_at ASC").Find(&attachments)

	ctx.JSON(iris.Map{"attachments": attachments})
}

// DeleteInquiryAttachment removes an attachment. Only the uploader or staff
// may delete, and the Cloudinary asset goes with the row.
func DeleteInquiryAttachment(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	inquiry := getInquiryAuthorized(ctx)
	if inquiry == nil {
		return
	}

	attachmentID := ctx.Params().Get("attachmentID")

	var attachment models.InquiryAttachment
	attachmentQuery := storage.DB.Where("id = ? AND inquiry_id = ?", attachmentID, inquiry.ID).Limit(1).Find(&attachment)
	if attachmentQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if attachmentQuery.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	if attachment.UploadedBy != claims.ID && claims.Role == "tenant" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	storage.DeleteFileFromCloudinary(attachment.URL)

	if dbErr := storage.DB.Delete(&attachment).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func fileTypeForMime(mimeType string) string {
	if strings.HasPrefix(mimeType, "image/") {
		return "image"
	}
	switch mimeType {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain":
		return "document"
	}
	return "other"
}

// sanitizeFileName keeps only characters that are safe inside a Cloudinary
// public ID.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

type UploadAttachmentInput struct {
	Data      string `json:"data" validate:"required"`
	FileName  string `json:"fileName" validate:"required,max=256"`
	FileSize  int64  `json:"fileSize" validate:"required,min=1"`
	MimeType  string `json:"mimeType" validate:"required,max=128"`
	MessageID *uint  `json:"messageID"`
}
