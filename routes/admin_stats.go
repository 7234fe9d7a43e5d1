package routes

import (
	"tenantdesk-server/models"
	"tenantdesk-server/storage"
	"time"

	"github.com/kataras/iris/v12"
)

// GET /admin/stats
func AdminStats(ctx iris.Context) {
	var openInquiries int64
	storage.DB.Model(&models.Inquiry{}).Where("status = ?", "open").Count(&openInquiries)
	var inProgressInquiries int64
	storage.DB.Model(&models.Inquiry{}).Where("status = ?", "in_progress").Count(&inProgressInquiries)
	var urgentMaintenance int64
	storage.DB.Model(&models.MaintenanceRequest{}).
		Where("priority = ? AND status NOT IN (?)", "urgent", []string{"completed", "cancelled"}).
		Count(&urgentMaintenance)

	since7 := time.Now().AddDate(0, 0, -7)
	since30 := time.Now().AddDate(0, 0, -30)
	var newInq7, newInq30 int64
	storage.DB.Model(&models.Inquiry{}).Where("created_at >= ?", since7).Count(&newInq7)
	storage.DB.Model(&models.Inquiry{}).Where("created_at >= ?", since30).Count(&newInq30)
	var newMsgs7 int64
	storage.DB.Model(&models.InquiryMessage{}).Where("created_at >= ?", since7).Count(&newMsgs7)
	var activeTenants int64
	storage.DB.Model(&models.User{}).Where("role = ? AND property_id IS NOT NULL", "tenant").Count(&activeTenants)

	ctx.JSON(iris.Map{
		"data": iris.Map{
			"open_inquiries":        openInquiries,
			"in_progress_inquiries": inProgressInquiries,
			"urgent_maintenance":    urgentMaintenance,
			"new_inquiries_7d":      newInq7,
			"new_inquiries_30d":     newInq30,
			"new_messages_7d":       newMsgs7,
			"active_tenants":        activeTenants,
		},
		"meta":  iris.Map{},
		"links": iris.Map{},
	})
}

// GET /admin/activity
func AdminActivity(ctx iris.Context) {
	var logs []models.AuditLog
	storage.DB.Order("created_at DESC").Limit(100).Find(&logs)
	ctx.JSON(iris.Map{"data": logs, "meta": iris.Map{}, "links": iris.Map{}})
}
