package routes

import (
	"tenantdesk-server/models"
	"tenantdesk-server/services"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

// CreateAnnouncement publishes a notice to one unit's tenants or, when no
// property is given, to the whole portfolio the manager runs.
func CreateAnnouncement(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input CreateAnnouncementInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.PropertyID != nil {
		var count int64
		query := storage.DB.Model(&models.Property{}).Where("id = ?", *input.PropertyID)
		if claims.Role == "manager" {
			query = query.Where("manager_id = ?", claims.ID)
		}
		query.Count(&count)
		if count == 0 {
			utils.CreateNotFound(ctx)
			return
		}
	}

	now := time.Now().UTC()
	publishedAt := &now
	if input.PublishedAt != nil {
		publishedAt = input.PublishedAt
	}

	announcement := models.Announcement{
		AuthorID:    claims.ID,
		PropertyID:  input.PropertyID,
		Title:       input.Title,
		Body:        input.Body,
		Pinned:      input.Pinned,
		PublishedAt: publishedAt,
		ExpiresAt:   input.ExpiresAt,
	}

	if dbErr := storage.DB.Create(&announcement).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Notify affected tenants unless the announcement is scheduled for later
	if !publishedAt.After(now) {
		go notifyAnnouncementTenants(announcement)
	}

	utils.AuditSummary(ctx, "announcement.create", "announcement", announcement.ID, announcement.Title)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(announcement)
}

// GetAnnouncements lists live announcements for the caller. Tenants see their
// unit's notices plus portfolio-wide ones, staff see everything they wrote.
func GetAnnouncements(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	now := time.Now().UTC()
	query := storage.DB.Model(&models.Announcement{}).
		Where("published_at IS NOT NULL AND published_at <= ?", now).
		Where("expires_at IS NULL OR expires_at > ?", now)

	if claims.Role == "tenant" {
		var tenant models.User
		if dbErr := storage.DB.First(&tenant, claims.ID).Error; dbErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		if tenant.PropertyID != nil {
			query = query.Where("property_id IS NULL OR property_id = ?", *tenant.PropertyID)
		} else {
			query = query.Where("property_id IS NULL")
		}
	} else if claims.Role == "manager" {
		query = query.Where("author_id = ? OR property_id IN (?)", claims.ID,
			storage.DB.Model(&models.Property{}).Select("id").Where("manager_id = ?", claims.ID))
	}

	var total int64
	query.Count(&total)

	var announcements []models.Announcement
	query.Preload("Author").
		Order("pinned DESC, published_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&announcements)

	utils.JSONPage(ctx, announcements, page, perPage, total)
}

// UpdateAnnouncement edits a notice. Authors and admins only. A scheduled
// announcement whose publish time is moved into the past notifies tenants on
// save, same as publishing it fresh.
func UpdateAnnouncement(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	params := ctx.Params()
	id := params.Get("id")

	var announcement models.Announcement
	announcementQuery := storage.DB.Where("id = ?", id).Limit(1).Find(&announcement)
	if announcementQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if announcementQuery.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	if announcement.AuthorID != claims.ID && claims.Role != "admin" && claims.Role != "super_admin" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	var input UpdateAnnouncementInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	wasLive := announcement.PublishedAt != nil && !announcement.PublishedAt.After(time.Now().UTC())

	updates := map[string]interface{}{}
	if input.Title != "" {
		updates["title"] = input.Title
	}
	if input.Body != "" {
		updates["body"] = input.Body
	}
	if input.Pinned != nil {
		updates["pinned"] = *input.Pinned
	}
	if input.PublishedAt != nil {
		updates["published_at"] = input.PublishedAt
	}
	if input.ExpiresAt != nil {
		updates["expires_at"] = input.ExpiresAt
	}

	if len(updates) == 0 {
		ctx.JSON(announcement)
		return
	}

	if dbErr := storage.DB.Model(&announcement).Updates(updates).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	nowLive := announcement.PublishedAt != nil && !announcement.PublishedAt.After(time.Now().UTC())
	if !wasLive && nowLive {
		go notifyAnnouncementTenants(announcement)
	}

	utils.AuditSummary(ctx, "announcement.update", "announcement", announcement.ID, announcement.Title)

	ctx.JSON(announcement)
}

// DeleteAnnouncement removes a notice. Authors and admins only.
func DeleteAnnouncement(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	params := ctx.Params()
	id := params.Get("id")

	var announcement models.Announcement
	announcementQuery := storage.DB.Where("id = ?", id).Limit(1).Find(&announcement)
	if announcementQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if announcementQuery.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	if announcement.AuthorID != claims.ID && claims.Role != "admin" && claims.Role != "super_admin" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	if dbErr := storage.DB.Delete(&announcement).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.AuditSummary(ctx, "announcement.delete", "announcement", announcement.ID, announcement.Title)

	ctx.StatusCode(iris.StatusNoContent)
}

// notifyAnnouncementTenants pushes the announcement to every tenant in its
// scope.
func notifyAnnouncementTenants(announcement models.Announcement) {
	var tenants []models.User
	query := storage.DB.Where("role = ?", "tenant")
	if announcement.PropertyID != nil {
		query = query.Where("property_id = ?", *announcement.PropertyID)
	}
	query.Find(&tenants)

	for _, tenant := range tenants {
		services.NotificationServiceInstance.SendAnnouncementNotification(tenant.ID, announcement.ID, announcement.Title)
	}
}

type CreateAnnouncementInput struct {
	PropertyID  *uint      `json:"propertyID"`
	Title       string     `json:"title" validate:"required,max=200"`
	Body        string     `json:"body" validate:"required,max=10000"`
	Pinned      bool       `json:"pinned"`
	PublishedAt *time.Time `json:"publishedAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

type UpdateAnnouncementInput struct {
	Title       string     `json:"title" validate:"omitempty,max=200"`
	Body        string     `json:"body" validate:"omitempty,max=10000"`
	Pinned      *bool      `json:"pinned"`
	PublishedAt *time.Time `json:"publishedAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}
