package routes

import (
	"encoding/json"
	"fmt"
	"strings"
	"tenantdesk-server/models"
	"tenantdesk-server/services"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

// CreateMaintenanceRequest files a new request for the tenant's unit. Photos
// arrive base64 encoded and are uploaded before the row is written.
func CreateMaintenanceRequest(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input CreateMaintenanceInput
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

	if tenant.PropertyID == nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "No unit is assigned to your account.", ctx)
		return
	}

	var photoURLs []string
	for i, photo := range input.Photos {
		if strings.Contains(photo, "res.cloudinary.com") {
			photoURLs = append(photoURLs, photo)
			continue
		}
		timestamp := time.Now().UnixNano() / int64(time.Millisecond)
		publicID := fmt.Sprintf("maintenance/%d/photo_%d_%d", claims.ID, timestamp, i)
		urlMap := storage.UploadBase64Image(photo, publicID)
		if urlMap != nil && urlMap["url"] != "" {
			photoURLs = append(photoURLs, urlMap["url"])
		}
	}

	photosJSON := "[]"
	if len(photoURLs) > 0 {
		if marshalled, marshalErr := json.Marshal(photoURLs); marshalErr == nil {
			photosJSON = string(marshalled)
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = "normal"
	}

	request := models.MaintenanceRequest{
		TenantID:        claims.ID,
		PropertyID:      tenant.PropertyID,
		Title:           input.Title,
		Description:     input.Description,
		Category:        input.Category,
		Priority:        priority,
		Status:          "open",
		Photos:          photosJSON,
		EntryPermission: input.EntryPermission,
	}

	if dbErr := storage.DB.Create(&request).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	unitName := ""
	if tenant.Property != nil {
		unitName = tenant.Property.DisplayName()
	}

	if priority == "urgent" {
		go services.SlackServiceInstance.NotifyUrgentMaintenance(request.ID, unitName, request.Title)
	}
	if tenant.Property != nil {
		go services.NotificationServiceInstance.SendMaintenanceStatusNotification(tenant.Property.ManagerID, request.ID, request.Title, "open")
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(request)
}

// GetMyMaintenanceRequests lists the tenant's own requests, newest first.
func GetMyMaintenanceRequests(ctx iris.Context) {
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

	query := storage.DB.Model(&models.MaintenanceRequest{}).Where("tenant_id = ?", claims.ID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var requests []models.MaintenanceRequest
	query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&requests)

	utils.JSONPage(ctx, requests, page, perPage, total)
}

// GetManagedMaintenanceRequests lists requests across the manager's units.
func GetManagedMaintenanceRequests(ctx iris.Context) {
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
	priority := ctx.URLParamDefault("priority", "")

	query := storage.DB.Model(&models.MaintenanceRequest{})
	if claims.Role == "manager" {
		query = query.Where("property_id IN (?)",
			storage.DB.Model(&models.Property{}).Select("id").Where("manager_id = ?", claims.ID))
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}

	var total int64
	query.Count(&total)

	var requests []models.MaintenanceRequest
	query.Preload("Tenant").
		Order("CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END, created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&requests)

	utils.JSONPage(ctx, requests, page, perPage, total)
}

// GetMaintenanceRequest returns one request if the caller may see it.
func GetMaintenanceRequest(ctx iris.Context) {
	request := getMaintenanceAuthorized(ctx)
	if request == nil {
		return
	}

	ctx.JSON(request)
}

// UpdateMaintenanceRequest lets staff move a request through its lifecycle,
// schedule it and assign it.
func UpdateMaintenanceRequest(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	if claims.Role == "tenant" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	request := getMaintenanceAuthorized(ctx)
	if request == nil {
		return
	}

	var input UpdateMaintenanceInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	previous := request.Status
	updates := map[string]interface{}{}

	if input.Status != "" && input.Status != previous {
		updates["status"] = input.Status
		if input.Status == "completed" {
			now := time.Now().UTC()
			updates["completed_at"] = &now
		}
	}
	if input.AssignedTo != nil {
		updates["assigned_to"] = input.AssignedTo
	}
	if input.ScheduledFor != nil {
		updates["scheduled_for"] = input.ScheduledFor
		if input.Status == "" && previous == "open" {
			updates["status"] = "scheduled"
		}
	}

	if len(updates) == 0 {
		ctx.JSON(request)
		return
	}

	if dbErr := storage.DB.Model(&request).Updates(updates).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if newStatus, changed := updates["status"].(string); changed && newStatus != previous {
		utils.AuditSummary(ctx, "maintenance.status_change", "maintenance_request", request.ID, fmt.Sprintf("%s -> %s", previous, newStatus))
		go services.NotificationServiceInstance.SendMaintenanceStatusNotification(request.TenantID, request.ID, request.Title, newStatus)
	}

	ctx.JSON(request)
}

func getMaintenanceAuthorized(ctx iris.Context) *models.MaintenanceRequest {
	params := ctx.Params()
	id := params.Get("id")

	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var request models.MaintenanceRequest
	requestQuery := storage.DB.Preload("Tenant").Where("id = ?", id).Limit(1).Find(&request)
	if requestQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}
	if requestQuery.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return nil
	}

	if claims.Role == "admin" || claims.Role == "super_admin" {
		return &request
	}
	if request.TenantID == claims.ID {
		return &request
	}
	if claims.Role == "manager" && request.PropertyID != nil {
		var count int64
		storage.DB.Model(&models.Property{}).
			Where("id = ? AND manager_id = ?", *request.PropertyID, claims.ID).
			Count(&count)
		if count > 0 {
			return &request
		}
	}

	ctx.StatusCode(iris.StatusForbidden)
	ctx.JSON(iris.Map{"error": "forbidden", "message": "You do not have access to this request."})
	return nil
}

type CreateMaintenanceInput struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"max=5000"`
	Category        string   `json:"category" validate:"omitempty,oneof=plumbing electrical appliance hvac other"`
	Priority        string   `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Photos          []string `json:"photos" validate:"max=6"`
	EntryPermission *bool    `json:"entryPermission"`
}

type UpdateMaintenanceInput struct {
	Status       string     `json:"status" validate:"omitempty,oneof=open scheduled in_progress completed cancelled"`
	AssignedTo   *uint      `json:"assignedTo"`
	ScheduledFor *time.Time `json:"scheduledFor"`
}
