package routes

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"tenantdesk-server/models"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
)

// AdminImportInquiries loads inquiry records exported from the previous
// system. Imported rows keep their concatenated message columns untouched;
// the thread reader knows how to split them. Units are referenced by name in
// the old data, so each record goes through the alias resolver.
func AdminImportInquiries(ctx iris.Context) {
	var body struct {
		Records []LegacyInquiryRecord `json:"records"`
	}
	if err := ctx.ReadJSON(&body); err != nil || len(body.Records) == 0 {
		ctx.StatusCode(http.StatusUnprocessableEntity)
		ctx.JSON(iris.Map{"error": "invalid_payload", "message": "records required"})
		return
	}

	var properties []models.Property
	if err := storage.DB.Find(&properties).Error; err != nil {
		ctx.StopWithJSON(http.StatusInternalServerError, iris.Map{"error": "server_error"})
		return
	}

	created := 0
	var unresolved []string
	var failed []string

	for _, record := range body.Records {
		property := matchUnitAlias(properties, record.Unit)
		if property == nil && record.Unit != "" {
			unresolved = append(unresolved, record.Unit)
		}

		tenant, tenantErr := findOrCreateImportedTenant(record)
		if tenantErr != nil {
			log.Printf("⚠️ IMPORT: Skipping record for %s: %v", record.TenantEmail, tenantErr)
			failed = append(failed, record.TenantEmail)
			continue
		}

		inquiry := models.Inquiry{
			TenantID:        tenant.ID,
			Subject:         record.Subject,
			Status:          "open",
			Message:         record.Message,
			ResponseMessage: record.ResponseMessage,
			Source:          "legacy_import",
		}
		if record.Status != "" {
			inquiry.Status = record.Status
		}
		if property != nil {
			inquiry.PropertyID = &property.ID
			inquiry.ManagerID = &property.ManagerID
		}
		inquiry.LastActivityAt = time.Now().UTC()
		if record.CreatedAt != "" {
			if createdAt, parseErr := time.Parse(time.RFC3339, record.CreatedAt); parseErr == nil {
				inquiry.CreatedAt = createdAt.UTC()
				inquiry.LastActivityAt = inquiry.CreatedAt
			}
		}

		if err := storage.DB.Create(&inquiry).Error; err != nil {
			log.Printf("⚠️ IMPORT: Failed to create inquiry for %s: %v", record.TenantEmail, err)
			failed = append(failed, record.TenantEmail)
			continue
		}

		// Tie the tenant to the resolved unit if they have none yet
		if property != nil && tenant.PropertyID == nil {
			storage.DB.Model(&tenant).Update("property_id", property.ID)
		}

		created++
	}

	utils.AuditSummary(ctx, "inquiry.import", "inquiry", 0,
		fmt.Sprintf("%d created, %d unresolved units, %d failed", created, len(unresolved), len(failed)))

	ctx.JSON(iris.Map{
		"data": iris.Map{
			"created":    created,
			"unresolved": unresolved,
			"failed":     failed,
		},
	})
}

// matchUnitAlias resolves the unit label old records carry. Exports from the
// previous system were inconsistent about which field they wrote, so the
// lookup tries unit name, then title, then building name, case-insensitively.
func matchUnitAlias(properties []models.Property, alias string) *models.Property {
	needle := strings.ToLower(strings.TrimSpace(alias))
	if needle == "" {
		return nil
	}

	for i := range properties {
		if strings.ToLower(properties[i].UnitName) == needle {
			return &properties[i]
		}
	}
	for i := range properties {
		if strings.ToLower(properties[i].Title) == needle {
			return &properties[i]
		}
	}
	for i := range properties {
		if strings.ToLower(properties[i].BuildingName) == needle {
			return &properties[i]
		}
	}

	return nil
}

// findOrCreateImportedTenant reuses an existing account by email or creates a
// placeholder one the tenant can claim through the password reset flow.
func findOrCreateImportedTenant(record LegacyInquiryRecord) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(record.TenantEmail))
	if email == "" {
		return nil, fmt.Errorf("record has no tenant email")
	}

	var tenant models.User
	tenantQuery := storage.DB.Where("email = ?", email).Limit(1).Find(&tenant)
	if tenantQuery.Error != nil {
		return nil, tenantQuery.Error
	}
	if tenantQuery.RowsAffected > 0 {
		return &tenant, nil
	}

	// Unclaimable random password until the tenant resets it
	hashedPassword, hashErr := hashAndSaltPassword(uuid.NewString())
	if hashErr != nil {
		return nil, hashErr
	}

	tenant = models.User{
		FirstName: record.TenantFirstName,
		LastName:  record.TenantLastName,
		Email:     email,
		Password:  hashedPassword,
	}
	if err := storage.DB.Create(&tenant).Error; err != nil {
		return nil, err
	}

	return &tenant, nil
}

type LegacyInquiryRecord struct {
	TenantEmail     string `json:"tenant_email"`
	TenantFirstName string `json:"tenant_first_name"`
	TenantLastName  string `json:"tenant_last_name"`
	Unit            string `json:"unit"`
	Subject         string `json:"subject"`
	Status          string `json:"status"`
	Message         string `json:"message"`
	ResponseMessage string `json:"response_message"`
	CreatedAt       string `json:"created_at"`
}
