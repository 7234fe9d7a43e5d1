package routes

import (
	"context"
	"fmt"
	"strings"
	"tenantdesk-server/models"
	"tenantdesk-server/services"
	"tenantdesk-server/storage"
	"tenantdesk-server/thread"
	"tenantdesk-server/utils"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// CreateInquiry opens a new inquiry for the authenticated tenant. The initial
// message is written to both storage schemes: the legacy concatenated column
// (unmarked first chunk) and a structured message row. The thread reader
// deduplicates the pair, so older clients that still read the column and newer
// ones that read the rows see the same conversation.
func CreateInquiry(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input CreateInquiryInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var tenant models.User
	if dbErr := storage.DB.Preload("Property").First(&tenant, claims.ID).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	propertyID := input.PropertyID
	if propertyID == nil {
		propertyID = tenant.PropertyID
	}
	if propertyID == nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "No unit is associated with this inquiry.", ctx)
		return
	}

	var property models.Property
	propertyQuery := storage.DB.Where("id = ?", *propertyID).Limit(1).Find(&property)
	if propertyQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if propertyQuery.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	category := input.Category
	if category == "" {
		category = "general"
	}

	now := time.Now().UTC()
	inquiry := models.Inquiry{
		TenantID:       claims.ID,
		PropertyID:     propertyID,
		ManagerID:      &property.ManagerID,
		Subject:        input.Subject,
		Category:       category,
		Status:         "open",
		Message:        input.Message,
		Source:         "portal",
		LastActivityAt: now,
	}
	inquiry.CreatedAt = now

	if dbErr := storage.DB.Create(&inquiry).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	firstMessage := models.InquiryMessage{
		InquiryID: inquiry.ID,
		SenderID:  claims.ID,
		Sender:    thread.SenderTenant,
		Message:   input.Message,
	}
	firstMessage.CreatedAt = now
	storage.DB.Create(&firstMessage)

	utils.InquiryMessagesSent.WithLabelValues(thread.SenderTenant).Inc()

	tenantName := strings.TrimSpace(tenant.FirstName + " " + tenant.LastName)
	go services.SlackServiceInstance.NotifyNewInquiry(inquiry.ID, tenantName, property.DisplayName(), input.Subject)
	go services.NotificationServiceInstance.SendInquiryReplyNotification(property.ManagerID, inquiry.ID, claims.ID, tenantName, property.DisplayName())

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(inquiry)
}

// GetMyInquiries lists the authenticated tenant's inquiries, newest first.
func GetMyInquiries(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	status := ctx.URLParamDefault("status", "")
	category := ctx.URLParamDefault("category", "")

	query := storage.DB.Model(&models.Inquiry{}).Where("tenant_id = ?", claims.ID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	query.Count(&total)

	var inquiries []models.Inquiry
	query.Preload("Property").
		Order("last_activity_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&inquiries)

	utils.JSONPage(ctx, inquiries, page, perPage, total)
}

// GetManagedInquiries lists inquiries for the units the authenticated manager
// is responsible for. Admins see everything.
func GetManagedInquiries(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	status := ctx.URLParamDefault("status", "")
	category := ctx.URLParamDefault("category", "")
	propertyID := ctx.URLParamIntDefault("propertyID", 0)

	query := storage.DB.Model(&models.Inquiry{})
	if claims.Role == "manager" {
		query = query.Where("manager_id = ?", claims.ID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}

	var total int64
	query.Count(&total)

	var inquiries []models.Inquiry
	query.Preload("Property").Preload("Tenant").
		Order("last_activity_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&inquiries)

	utils.JSONPage(ctx, inquiries, page, perPage, total)
}

// GetInquiry returns a single inquiry with its relations.
func GetInquiry(ctx iris.Context) {
	inquiry := getInquiryAuthorized(ctx, "Property", "Tenant")
	if inquiry == nil {
		return
	}

	ctx.JSON(inquiry)
}

// GetInquiryThread reconstructs the inquiry's conversation out of both
// storage schemes and correlates attachments to messages. The reconstruction
// is read-only: re-fetching the thread never mutates the inquiry.
func GetInquiryThread(ctx iris.Context) {
	inquiry := getInquiryAuthorized(ctx, "Property", "Property.Manager", "Tenant", "Messages", "Attachments")
	if inquiry == nil {
		return
	}

	reconstructed := thread.Reconstruct(rawInquiryFromModel(inquiry))
	utils.ThreadsReconstructed.Inc()

	ctx.JSON(iris.Map{
		"inquiry": iris.Map{
			"ID":        inquiry.ID,
			"subject":   inquiry.Subject,
			"status":    inquiry.Status,
			"createdAt": inquiry.CreatedAt,
		},
		"thread": reconstructed,
	})
}

// SendInquiryMessage appends a message to the inquiry under both storage
// schemes: a structured row, and a marker-delimited chunk on the legacy
// column (tenant messages on message, manager replies on response_message).
// Both writes carry the same timestamp so the reader collapses them into one
// display message.
func SendInquiryMessage(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	inquiry := getInquiryAuthorized(ctx, "Property")
	if inquiry == nil {
		return
	}

	var input SendInquiryMessageInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	body := strings.TrimSpace(input.Message)
	if body == "" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Message cannot be empty.", ctx)
		return
	}

	sender := thread.SenderManager
	if claims.ID == inquiry.TenantID {
		sender = thread.SenderTenant
	}

	now := time.Now().UTC()
	message := models.InquiryMessage{
		InquiryID: inquiry.ID,
		SenderID:  claims.ID,
		Sender:    sender,
		Message:   body,
	}
	message.CreatedAt = now

	if dbErr := storage.DB.Create(&message).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	updates := map[string]interface{}{"last_activity_at": now}
	if sender == thread.SenderTenant {
		updates["message"] = inquiry.Message + thread.NewMessageMarker.Format(now) + body
		if inquiry.Status == "resolved" || inquiry.Status == "closed" {
			updates["status"] = "open"
			updates["resolved_at"] = nil
		}
	} else {
		updates["response_message"] = inquiry.ResponseMessage + thread.ManagerReplyMarker.Format(now) + body
		if inquiry.Status == "open" {
			updates["status"] = "in_progress"
		}
	}

	if dbErr := storage.DB.Model(&inquiry).Updates(updates).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.InquiryMessagesSent.WithLabelValues(sender).Inc()

	unitName := ""
	if inquiry.Property != nil {
		unitName = inquiry.Property.DisplayName()
	}

	var senderUser models.User
	storage.DB.Select("first_name, last_name").First(&senderUser, claims.ID)
	senderName := strings.TrimSpace(senderUser.FirstName + " " + senderUser.LastName)

	var recipientID uint
	if sender == thread.SenderTenant {
		if inquiry.ManagerID != nil {
			recipientID = *inquiry.ManagerID
		}
	} else {
		recipientID = inquiry.TenantID
	}
	if recipientID != 0 {
		go services.NotificationServiceInstance.SendInquiryReplyNotification(recipientID, inquiry.ID, claims.ID, senderName, unitName)
	}

	publishInquiryEvent(inquiry.ID, iris.Map{
		"type":      "message",
		"inquiryID": inquiry.ID,
		"sender":    sender,
		"senderID":  claims.ID,
		"message":   body,
		"createdAt": now.Format(time.RFC3339Nano),
	})

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(message)
}

// UpdateInquiryStatus moves an inquiry through its lifecycle. Managers only.
func UpdateInquiryStatus(ctx iris.Context) {
	inquiry := getInquiryAuthorized(ctx, "Property")
	if inquiry == nil {
		return
	}

	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	if claims.Role == "tenant" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	var input UpdateInquiryStatusInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	previous := inquiry.Status
	if previous == input.Status {
		ctx.JSON(inquiry)
		return
	}

	updates := map[string]interface{}{"status": input.Status}
	if input.Status == "resolved" {
		now := time.Now().UTC()
		updates["resolved_at"] = &now
	} else if previous == "resolved" {
		updates["resolved_at"] = nil
	}

	if dbErr := storage.DB.Model(&inquiry).Updates(updates).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.AuditSummary(ctx, "inquiry.status_change", "inquiry", inquiry.ID, fmt.Sprintf("%s -> %s", previous, input.Status))

	unitName := ""
	if inquiry.Property != nil {
		unitName = inquiry.Property.DisplayName()
	}
	go services.NotificationServiceInstance.SendInquiryStatusNotification(inquiry.TenantID, inquiry.ID, unitName, input.Status)

	publishInquiryEvent(inquiry.ID, iris.Map{
		"type":      "status",
		"inquiryID": inquiry.ID,
		"status":    input.Status,
	})

	ctx.JSON(inquiry)
}

// SetTypingIndicator marks the caller as typing in this inquiry for a few
// seconds. Stored in Redis only, nothing touches Postgres.
func SetTypingIndicator(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	inquiry := getInquiryAuthorized(ctx)
	if inquiry == nil {
		return
	}

	key := fmt.Sprintf("typing:inq:%d:user:%d", inquiry.ID, claims.ID)
	storage.Redis.Set(context.Background(), key, "1", 5*time.Second)

	publishInquiryEvent(inquiry.ID, iris.Map{
		"type":      "typing",
		"inquiryID": inquiry.ID,
		"userID":    claims.ID,
	})

	ctx.StatusCode(iris.StatusNoContent)
}

// GetTypingIndicator reports whether the other party is currently typing.
func GetTypingIndicator(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	inquiry := getInquiryAuthorized(ctx)
	if inquiry == nil {
		return
	}

	var otherID uint
	if claims.ID == inquiry.TenantID {
		if inquiry.ManagerID != nil {
			otherID = *inquiry.ManagerID
		}
	} else {
		otherID = inquiry.TenantID
	}

	typing := false
	if otherID != 0 {
		key := fmt.Sprintf("typing:inq:%d:user:%d", inquiry.ID, otherID)
		val, redisErr := storage.Redis.Get(context.Background(), key).Result()
		typing = redisErr == nil && val == "1"
	}

	ctx.JSON(iris.Map{"typing": typing})
}

// getInquiryAuthorized loads the inquiry from the id route parameter and
// enforces access: the tenant who opened it, the manager it is assigned to
// (or who manages the unit), and admins. Writes the error response itself and
// returns nil when the caller may not see the inquiry.
func getInquiryAuthorized(ctx iris.Context, preloads ...string) *models.Inquiry {
	params := ctx.Params()
	id := params.Get("id")

	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	query := storage.DB
	for _, preload := range preloads {
		if preload == "Messages" {
			query = query.Preload("Messages", func(db *gorm.DB) *gorm.DB {
				return db.Order("created_at ASC")
			})
			continue
		}
		query = query.Preload(preload)
	}

	var inquiry models.Inquiry
	inquiryQuery := query.Where("id = ?", id).Limit(1).Find(&inquiry)
	if inquiryQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}
	if inquiryQuery.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return nil
	}

	if claims.Role == "admin" || claims.Role == "super_admin" {
		return &inquiry
	}
	if inquiry.TenantID == claims.ID {
		return &inquiry
	}
	if claims.Role == "manager" {
		if inquiry.ManagerID != nil && *inquiry.ManagerID == claims.ID {
			return &inquiry
		}
		if inquiry.Property != nil && inquiry.Property.ManagerID == claims.ID {
			return &inquiry
		}
	}

	ctx.StatusCode(iris.StatusForbidden)
	ctx.JSON(iris.Map{"error": "forbidden", "message": "You do not have access to this inquiry."})
	return nil
}

// rawInquiryFromModel flattens a loaded inquiry into the snapshot shape the
// reconstructor consumes.
func rawInquiryFromModel(inquiry *models.Inquiry) thread.RawInquiry {
	raw := thread.RawInquiry{
		ID:              inquiry.ID,
		TenantID:        inquiry.TenantID,
		Status:          inquiry.Status,
		Message:         inquiry.Message,
		ResponseMessage: inquiry.ResponseMessage,
		CreatedAt:       inquiry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	if inquiry.Property != nil {
		raw.Property = inquiry.Property.DisplayName()
		managerName := strings.TrimSpace(inquiry.Property.Manager.FirstName + " " + inquiry.Property.Manager.LastName)
		raw.PropertyManager = managerName
	}

	raw.Messages = make([]thread.StructuredMessage, 0, len(inquiry.Messages))
	for _, row := range inquiry.Messages {
		raw.Messages = append(raw.Messages, thread.StructuredMessage{
			ID:        row.ID,
			SenderID:  row.SenderID,
			Sender:    row.Sender,
			Message:   row.Message,
			CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	raw.Attachments = make([]thread.Attachment, 0, len(inquiry.Attachments))
	for _, att := range inquiry.Attachments {
		raw.Attachments = append(raw.Attachments, thread.Attachment{
			ID:         att.ID,
			FileName:   att.FileName,
			FileSize:   att.FileSize,
			MimeType:   att.MimeType,
			FileType:   att.FileType,
			URL:        att.URL,
			UploadedBy: att.UploadedBy,
			CreatedAt:  att.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	return raw
}

type CreateInquiryInput struct {
	PropertyID *uint  `json:"propertyID"`
	Subject    string `json:"subject" validate:"required,max=200"`
	Category   string `json:"category" validate:"omitempty,oneof=maintenance billing lease general other"`
	Message    string `json:"message" validate:"required,max=10000"`
}

type SendInquiryMessageInput struct {
	Message string `json:"message" validate:"required,max=10000"`
}

type UpdateInquiryStatusInput struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}
