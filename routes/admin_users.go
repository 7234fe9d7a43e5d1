package routes

import (
	"net/http"
	"tenantdesk-server/models"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"

	"github.com/kataras/iris/v12"
)

// GET /admin/users handled in admin.go (AdminListUsers)

// GET /admin/users/:id — full user info + profile + recent activity
func AdminGetUser(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var user models.User
	if err := storage.DB.Preload("Property").First(&user, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "user not found")
		return
	}

	var profile models.UserProfile
	storage.DB.Where("user_id = ?", id).Limit(1).Find(&profile)

	var inquiryCount, maintenanceCount int64
	storage.DB.Model(&models.Inquiry{}).Where("tenant_id = ?", id).Count(&inquiryCount)
	storage.DB.Model(&models.MaintenanceRequest{}).Where("tenant_id = ?", id).Count(&maintenanceCount)

	var actions []models.AuditLog
	storage.DB.Where("admin_user_id = ?", id).Order("created_at DESC").Limit(50).Find(&actions)

	ctx.JSON(iris.Map{
		"data": iris.Map{
			"user":               user,
			"profile":            profile,
			"inquiries":          inquiryCount,
			"maintenance":        maintenanceCount,
			"recentAdminActions": actions,
		},
		"meta":  iris.Map{},
		"links": iris.Map{},
	})
}

// POST /admin/users/:id/deactivate — soft delete, locks the account out
func AdminDeactivateUser(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "user not found")
		return
	}

	if user.Role == "super_admin" {
		utils.JSONError(ctx, http.StatusForbidden, "forbidden", "super admin accounts cannot be deactivated")
		return
	}

	if err := storage.DB.Delete(&user).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.AuditSummary(ctx, "user.deactivate", "user", user.ID, user.Email)
	ctx.JSON(iris.Map{"data": iris.Map{"deactivated": true}})
}

// POST /admin/users/:id/reactivate — clears the soft delete
func AdminReactivateUser(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	result := storage.DB.Unscoped().Model(&models.User{}).Where("id = ?", id).Update("deleted_at", nil)
	if result.Error != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "user not found")
		return
	}

	utils.AuditSummary(ctx, "user.reactivate", "user", id, "")
	ctx.JSON(iris.Map{"data": iris.Map{"reactivated": true}})
}
