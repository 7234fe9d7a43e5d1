package routes

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"tenantdesk-server/models"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
	"github.com/xuri/excelize/v2"
)

const (
	exportJobTTL = 30 * time.Minute
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type exportJob struct {
	ID        string `json:"id"`
	Resource  string `json:"resource"`
	Status    string `json:"status"` // pending, processing, done, failed
	FileName  string `json:"file_name,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt int64  `json:"created_at"`

	data []byte
}

var (
	exportJobs   = map[string]*exportJob{}
	exportJobsMu sync.Mutex
)

// POST /admin/export { resource: string, filters: object }
func AdminCreateExport(ctx iris.Context) {
	var body struct {
		Resource string                 `json:"resource"`
		Filters  map[string]interface{} `json:"filters"`
	}
	if err := ctx.ReadJSON(&body); err != nil || body.Resource == "" {
		ctx.StatusCode(http.StatusUnprocessableEntity)
		ctx.JSON(iris.Map{"error": "invalid_payload", "message": "resource required"})
		return
	}

	switch body.Resource {
	case "inquiries", "users", "maintenance":
	default:
		ctx.StatusCode(http.StatusUnprocessableEntity)
		ctx.JSON(iris.Map{"error": "invalid_resource", "message": "resource must be one of inquiries, users, maintenance"})
		return
	}

	id := uuid.NewString()
	job := &exportJob{ID: id, Resource: body.Resource, Status: "pending", CreatedAt: time.Now().Unix()}
	exportJobsMu.Lock()
	exportJobs[id] = job
	exportJobsMu.Unlock()

	utils.ExportJobs.WithLabelValues("created").Inc()

	go runExportJob(job, body.Filters)

	ctx.JSON(iris.Map{"data": iris.Map{"id": id, "status": job.Status}})
}

// GET /admin/export/:id
func AdminGetExport(ctx iris.Context) {
	id := ctx.Params().GetString("id")
	exportJobsMu.Lock()
	job, ok := exportJobs[id]
	exportJobsMu.Unlock()
	if !ok {
		ctx.StatusCode(http.StatusNotFound)
		ctx.JSON(iris.Map{"error": "not_found", "message": "job not found"})
		return
	}
	ctx.JSON(iris.Map{"data": job})
}

// GET /admin/export/:id/download
func AdminDownloadExport(ctx iris.Context) {
	id := ctx.Params().GetString("id")
	exportJobsMu.Lock()
	job, ok := exportJobs[id]
	var data []byte
	var fileName, status string
	if ok {
		data = job.data
		fileName = job.FileName
		status = job.Status
	}
	exportJobsMu.Unlock()

	if !ok {
		ctx.StatusCode(http.StatusNotFound)
		ctx.JSON(iris.Map{"error": "not_found", "message": "job not found"})
		return
	}
	if status != "done" {
		ctx.StatusCode(http.StatusConflict)
		ctx.JSON(iris.Map{"error": "not_ready", "message": "job is " + status})
		return
	}

	ctx.ContentType(xlsxMIME)
	ctx.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	ctx.Write(data)
}

func runExportJob(job *exportJob, filters map[string]interface{}) {
	setExportStatus(job, "processing", nil, "")

	var file *excelize.File
	var err error
	switch job.Resource {
	case "inquiries":
		file, err = buildInquiriesWorkbook(filters)
	case "users":
		file, err = buildUsersWorkbook(filters)
	case "maintenance":
		file, err = buildMaintenanceWorkbook(filters)
	}

	if err != nil {
		setExportStatus(job, "failed", nil, err.Error())
		utils.ExportJobs.WithLabelValues("failed").Inc()
		scheduleExportCleanup(job.ID)
		return
	}

	buf, bufErr := file.WriteToBuffer()
	if bufErr != nil {
		setExportStatus(job, "failed", nil, bufErr.Error())
		utils.ExportJobs.WithLabelValues("failed").Inc()
		scheduleExportCleanup(job.ID)
		return
	}

	exportJobsMu.Lock()
	job.Status = "done"
	job.data = buf.Bytes()
	job.FileName = fmt.Sprintf("%s_%s.xlsx", job.Resource, time.Now().Format("20060102_150405"))
	exportJobsMu.Unlock()

	utils.ExportJobs.WithLabelValues("done").Inc()
	scheduleExportCleanup(job.ID)
}

func setExportStatus(job *exportJob, status string, data []byte, errMsg string) {
	exportJobsMu.Lock()
	job.Status = status
	if data != nil {
		job.data = data
	}
	job.Error = errMsg
	exportJobsMu.Unlock()
}

// scheduleExportCleanup drops the finished job after its TTL so the map does
// not grow without bound.
func scheduleExportCleanup(id string) {
	time.AfterFunc(exportJobTTL, func() {
		exportJobsMu.Lock()
		delete(exportJobs, id)
		exportJobsMu.Unlock()
	})
}

func newWorkbook(sheetName string, headers []string) (*excelize.File, string) {
	f := excelize.NewFile()
	index, _ := f.NewSheet(sheetName)
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	return f, sheetName
}

func buildInquiriesWorkbook(filters map[string]interface{}) (*excelize.File, error) {
	query := storage.DB.Model(&models.Inquiry{}).Preload("Tenant").Preload("Property")
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var inquiries []models.Inquiry
	if err := query.Order("created_at DESC").Find(&inquiries).Error; err != nil {
		return nil, err
	}

	f, sheet := newWorkbook("Inquiries", []string{"ID", "Tenant", "Unit", "Subject", "Category", "Status", "Source", "Created At", "Resolved At"})

	rowIndex := 2
	for _, inquiry := range inquiries {
		tenantName := strings.TrimSpace(inquiry.Tenant.FirstName + " " + inquiry.Tenant.LastName)
		unitName := ""
		if inquiry.Property != nil {
			unitName = inquiry.Property.DisplayName()
		}

		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowIndex), inquiry.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowIndex), tenantName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowIndex), unitName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowIndex), inquiry.Subject)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", rowIndex), inquiry.Category)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", rowIndex), inquiry.Status)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", rowIndex), inquiry.Source)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", rowIndex), inquiry.CreatedAt.Format("2006-01-02 15:04"))
		if inquiry.ResolvedAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("I%d", rowIndex), inquiry.ResolvedAt.Format("2006-01-02 15:04"))
		}
		rowIndex++
	}

	return f, nil
}

func buildUsersWorkbook(filters map[string]interface{}) (*excelize.File, error) {
	query := storage.DB.Model(&models.User{})
	if role, ok := filters["role"].(string); ok && role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	f, sheet := newWorkbook("Users", []string{"ID", "First Name", "Last Name", "Email", "Phone", "Role", "Unit ID", "Created At"})

	rowIndex := 2
	for _, user := range users {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowIndex), user.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowIndex), user.FirstName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowIndex), user.LastName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowIndex), user.Email)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", rowIndex), user.PhoneNumber)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", rowIndex), user.Role)
		if user.PropertyID != nil {
			f.SetCellValue(sheet, fmt.Sprintf("G%d", rowIndex), *user.PropertyID)
		}
		f.SetCellValue(sheet, fmt.Sprintf("H%d", rowIndex), user.CreatedAt.Format("2006-01-02 15:04"))
		rowIndex++
	}

	return f, nil
}

func buildMaintenanceWorkbook(filters map[string]interface{}) (*excelize.File, error) {
	query := storage.DB.Model(&models.MaintenanceRequest{}).Preload("Tenant")
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if priority, ok := filters["priority"].(string); ok && priority != "" {
		query = query.Where("priority = ?", priority)
	}

	var requests []models.MaintenanceRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}

	f, sheet := newWorkbook("Maintenance", []string{"ID", "Tenant", "Unit ID", "Title", "Category", "Priority", "Status", "Created At", "Completed At"})

	rowIndex := 2
	for _, request := range requests {
		tenantName := strings.TrimSpace(request.Tenant.FirstName + " " + request.Tenant.LastName)

		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowIndex), request.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowIndex), tenantName)
		if request.PropertyID != nil {
			f.SetCellValue(sheet, fmt.Sprintf("C%d", rowIndex), *request.PropertyID)
		}
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowIndex), request.Title)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", rowIndex), request.Category)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", rowIndex), request.Priority)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", rowIndex), request.Status)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", rowIndex), request.CreatedAt.Format("2006-01-02 15:04"))
		if request.CompletedAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("I%d", rowIndex), request.CompletedAt.Format("2006-01-02 15:04"))
		}
		rowIndex++
	}

	return f, nil
}
