package routes

import (
	"fmt"
	"tenantdesk-server/models"
	"tenantdesk-server/services"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

// UploadDocument stores a lease, notice or invoice. Staff only. The tenant is
// notified once the document is shared with them.
func UploadDocument(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input UploadDocumentInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.FileSize > maxAttachmentBytes {
		utils.CreateError(iris.StatusRequestEntityTooLarge, "Upload Error", "File exceeds the 15MB limit.", ctx)
		return
	}

	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	publicID := fmt.Sprintf("documents/%d_%s", timestamp, sanitizeFileName(input.FileName))

	urlMap := storage.UploadBase64File(input.Data, publicID, "auto")
	if urlMap == nil || urlMap["url"] == "" {
		utils.CreateError(iris.StatusBadGateway, "Upload Error", "File upload failed.", ctx)
		return
	}

	kind := input.Kind
	if kind == "" {
		kind = "other"
	}

	document := models.Document{
		TenantID:         input.TenantID,
		PropertyID:       input.PropertyID,
		UploadedBy:       claims.ID,
		Title:            input.Title,
		FileName:         input.FileName,
		FileSize:         input.FileSize,
		MimeType:         input.MimeType,
		Kind:             kind,
		URL:              urlMap["url"],
		SharedWithTenant: input.SharedWithTenant,
	}

	if dbErr := storage.DB.Create(&document).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if document.TenantID != nil && document.SharedWithTenant != nil && *document.SharedWithTenant {
		go services.NotificationServiceInstance.SendDocumentSharedNotification(*document.TenantID, document.ID, document.Title)
	}

	utils.AuditSummary(ctx, "document.upload", "document", document.ID, document.Title)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(document)
}

// GetMyDocuments lists the documents shared with the authenticated tenant.
func GetMyDocuments(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	kind := ctx.URLParamDefault("kind", "")

	query := storage.DB.Model(&models.Document{}).
		Where("tenant_id = ? AND shared_with_tenant = ?", claims.ID, true)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var documents []models.Document
	query.Order("created_at DESC").Find(&documents)

	ctx.JSON(iris.Map{"documents": documents})
}

// GetManagedDocuments lists documents for staff, filterable by tenant, unit
// and kind.
func GetManagedDocuments(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	tenantID := ctx.URLParamIntDefault("tenantID", 0)
	propertyID := ctx.URLParamIntDefault("propertyID", 0)
	kind := ctx.URLParamDefault("kind", "")

	query := storage.DB.Model(&models.Document{})
	if claims.Role == "manager" {
		query = query.Where("uploaded_by = ? OR property_id IN (?)", claims.ID,
			storage.DB.Model(&models.Property{}).Select("id").Where("manager_id = ?", claims.ID))
	}
	if tenantID > 0 {
		query = query.Where("tenant_id = ?", tenantID)
	}
	if propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var total int64
	query.Count(&total)

	var documents []models.Document
	query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&documents)

	utils.JSONPage(ctx, documents, page, perPage, total)
}

// GetDocument returns one document if the caller may see it. Tenants only
// see documents shared with them.
func GetDocument(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var document models.Document
	documentQuery := storage.DB.Where("id = ?", id).Limit(1).Find(&document)
	if documentQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if documentQuery.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	if claims.Role == "admin" || claims.Role == "super_admin" || document.UploadedBy == claims.ID {
		ctx.JSON(document)
		return
	}
	if document.TenantID != nil && *document.TenantID == claims.ID &&
		document.SharedWithTenant != nil && *document.SharedWithTenant {
		ctx.JSON(document)
		return
	}
	if claims.Role == "manager" && document.PropertyID != nil {
		var count int64
		storage.DB.Model(&models.Property{}).
			Where("id = ? AND manager_id = ?", *document.PropertyID, claims.ID).
			Count(&count)
		if count > 0 {
			ctx.JSON(document)
			return
		}
	}

	ctx.StatusCode(iris.StatusForbidden)
	ctx.JSON(iris.Map{"error": "forbidden", "message": "You do not have access to this document."})
}

// ShareDocument flips a document's tenant visibility.
func ShareDocument(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var document models.Document
	documentQuery := storage.DB.Where("id = ?", id).Limit(1).Find(&document)
	if documentQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if documentQuery.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	var input ShareDocumentInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.SharedWithTenant == nil {
		ctx.StatusCode(iris.StatusNoContent)
		return
	}

	wasShared := document.SharedWithTenant != nil && *document.SharedWithTenant

	if dbErr := storage.DB.Model(&document).Update("shared_with_tenant", *input.SharedWithTenant).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if document.TenantID != nil && *input.SharedWithTenant && !wasShared {
		go services.NotificationServiceInstance.SendDocumentSharedNotification(*document.TenantID, document.ID, document.Title)
	}

	ctx.StatusCode(iris.StatusNoContent)
}

// DeleteDocument removes the row and the stored file.
func DeleteDocument(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var document models.Document
	documentQuery := storage.DB.Where("id = ?", id).Limit(1).Find(&document)
	if documentQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if documentQuery.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	storage.DeleteFileFromCloudinary(document.URL)

	if dbErr := storage.DB.Delete(&document).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.AuditSummary(ctx, "document.delete", "document", document.ID, document.Title)

	ctx.StatusCode(iris.StatusNoContent)
}

type UploadDocumentInput struct {
	TenantID         *uint  `json:"tenantID"`
	PropertyID       *uint  `json:"propertyID"`
	Title            string `json:"title" validate:"required,max=200"`
	FileName         string `json:"fileName" validate:"required,max=256"`
	FileSize         int64  `json:"fileSize" validate:"required,min=1"`
	MimeType         string `json:"mimeType" validate:"required,max=128"`
	Kind             string `json:"kind" validate:"omitempty,oneof=lease notice invoice other"`
	Data             string `json:"data" validate:"required"`
	SharedWithTenant *bool  `json:"sharedWithTenant"`
}

type ShareDocumentInput struct {
	SharedWithTenant *bool `json:"sharedWithTenant" validate:"required"`
}
