package routes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"tenantdesk-server/models"
	"tenantdesk-server/services"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm/clause"
)

func CreateProperty(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateUnitInput

	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	managerID := claims.ID
	if input.ManagerID != 0 && (claims.Role == "admin" || claims.Role == "super_admin") {
		managerID = input.ManagerID
	}

	// Ensure arrays are never null
	amenities := input.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	amenitiesJSON, _ := json.Marshal(amenities)

	imagesArr := insertImages(InsertImages{
		images: input.Images,
	})
	if imagesArr == nil {
		imagesArr = []string{}
	}
	imagesJSON, _ := json.Marshal(imagesArr)

	property := models.Property{
		ManagerID:    managerID,
		Title:        input.Title,
		BuildingName: input.BuildingName,
		UnitName:     input.UnitName,
		Description:  input.Description,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		Zip:          input.Zip,
		Country:      input.Country,
		Bedrooms:     input.Bedrooms,
		Bathrooms:    input.Bathrooms,
		MonthlyRent:  input.MonthlyRent,
		Currency:     input.Currency,
		Amenities:    string(amenitiesJSON),
		Images:       string(imagesJSON),
		IsActive:     input.IsActive,
	}

	result := storage.DB.Create(&property)
	if result.Error != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"error": "Failed to create unit"})
		return
	}

	ctx.JSON(property)
}

func GetProperty(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	property := GetPropertyAndAssociationsByPropertyID(id, ctx)
	if property == nil {
		return
	}

	ctx.JSON(property)
}

// GetManagedProperties lists the authenticated manager's units.
func GetManagedProperties(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var properties []models.Property
	propertiesExist := storage.DB.Preload(clause.Associations).Where("manager_id = ?", claims.ID).Find(&properties)

	if propertiesExist.Error != nil {
		utils.CreateError(
			iris.StatusInternalServerError,
			"Error", propertiesExist.Error.Error(), ctx)
		return
	}

	ctx.JSON(properties)
}

func DeleteProperty(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var property models.Property
	propertyExists := storage.DB.Find(&property, id)

	if propertyExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	if property.ManagerID != claims.ID && claims.Role != "admin" && claims.Role != "super_admin" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	propertyDeleted := storage.DB.Delete(&models.Property{}, id)

	if propertyDeleted.Error != nil {
		utils.CreateError(
			iris.StatusInternalServerError,
			"Error", propertyDeleted.Error.Error(), ctx)
		return
	}

	// Unassign tenants still pointing at the unit
	storage.DB.Model(&models.User{}).Where("property_id = ?", id).Update("property_id", nil)
	ctx.StatusCode(iris.StatusNoContent)
}

func UpdateProperty(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	property := GetPropertyAndAssociationsByPropertyID(id, ctx)
	if property == nil {
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	if property.ManagerID != claims.ID && claims.Role != "admin" && claims.Role != "super_admin" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	var input UpdateUnitInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	amenities, _ := json.Marshal(input.Amenities)

	imagesArr := insertImages(InsertImages{
		images:     input.Images,
		propertyID: strconv.FormatUint(uint64(property.ID), 10),
	})

	jsonImgs, _ := json.Marshal(imagesArr)

	property.Title = input.Title
	property.BuildingName = input.BuildingName
	property.UnitName = input.UnitName
	property.Description = input.Description
	property.AddressLine1 = input.AddressLine1
	property.AddressLine2 = input.AddressLine2
	property.City = input.City
	property.State = input.State
	property.Zip = input.Zip
	property.Country = input.Country
	property.Bedrooms = input.Bedrooms
	property.Bathrooms = input.Bathrooms
	property.MonthlyRent = input.MonthlyRent
	property.Currency = input.Currency
	property.Amenities = string(amenities)
	property.Images = string(jsonImgs)
	property.IsActive = input.IsActive

	rowsUpdated := storage.DB.Model(&property).Updates(property)

	if rowsUpdated.Error != nil {
		utils.CreateError(
			iris.StatusInternalServerError,
			"Error", rowsUpdated.Error.Error(), ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func GetPropertyAndAssociationsByPropertyID(id string, ctx iris.Context) *models.Property {

	var property models.Property
	propertyExists := storage.DB.Preload("Manager").
		Preload("Tenants").
		Find(&property, id)

	if propertyExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}

	if propertyExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return nil
	}

	return &property
}

// AssignTenant links a tenant account to the unit and stamps the lease dates.
func AssignTenant(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	property := GetPropertyAndAssociationsByPropertyID(id, ctx)
	if property == nil {
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	if property.ManagerID != claims.ID && claims.Role != "admin" && claims.Role != "super_admin" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	var input AssignTenantInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var tenant models.User
	tenantQuery := storage.DB.Where("id = ?", input.TenantID).Limit(1).Find(&tenant)
	if tenantQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if tenantQuery.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Tenant not found", ctx)
		return
	}

	updates := map[string]interface{}{"property_id": property.ID}
	if input.MoveInDate != "" {
		updates["move_in_date"] = input.MoveInDate
	}
	if input.LeaseEndDate != "" {
		updates["lease_end_date"] = input.LeaseEndDate
	}

	if dbErr := storage.DB.Model(&tenant).Updates(updates).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.AuditSummary(ctx, "property.assign_tenant", "property", property.ID,
		fmt.Sprintf("tenant %d -> unit %s", tenant.ID, property.DisplayName()))

	go services.NotificationServiceInstance.SendWelcomeNotificationToNewUser(tenant.ID, tenant.FirstName)

	ctx.StatusCode(iris.StatusNoContent)
}

// RemoveTenant unlinks a tenant from the unit at move-out.
func RemoveTenant(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")
	tenantID := params.Get("tenantID")

	property := GetPropertyAndAssociationsByPropertyID(id, ctx)
	if property == nil {
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	if property.ManagerID != claims.ID && claims.Role != "admin" && claims.Role != "super_admin" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	result := storage.DB.Model(&models.User{}).
		Where("id = ? AND property_id = ?", tenantID, property.ID).
		Updates(map[string]interface{}{"property_id": nil, "lease_end_date": time.Now().UTC().Format("2006-01-02")})
	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if result.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Tenant is not assigned to this unit", ctx)
		return
	}

	utils.AuditSummary(ctx, "property.remove_tenant", "property", property.ID,
		fmt.Sprintf("tenant %s removed from unit %s", tenantID, property.DisplayName()))

	ctx.StatusCode(iris.StatusNoContent)
}

func insertImages(arg InsertImages) []string {
	var imagesArr []string
	for i, image := range arg.images {
		if image == "" {
			continue // Skip empty strings
		}
		if !(strings.Contains(image, "res.cloudinary.com")) {
			// Generate unique filename with timestamp and index
			timestamp := time.Now().UnixNano() / int64(time.Millisecond) // milliseconds since epoch
			publicID := fmt.Sprintf("unit_%d_%d", timestamp, i)

			if arg.propertyID != "" {
				publicID = "units/" + arg.propertyID + "/" + publicID
			}

			fmt.Printf("Uploading image with publicID: %s\n", publicID)
			urlMap := storage.UploadBase64Image(image, publicID)
			if urlMap != nil && urlMap["url"] != "" {
				imagesArr = append(imagesArr, urlMap["url"])
				fmt.Printf("Successfully uploaded image: %s\n", urlMap["url"])
			} else {
				// Log error but continue
				fmt.Printf("Failed to upload image to Cloudinary with publicID: %s\n", publicID)
			}
		} else {
			imagesArr = append(imagesArr, image)
		}
	}
	return imagesArr
}

// DeletePropertyImage deletes a single image from a unit
func DeletePropertyImage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	// Get parameters from query string instead of body
	propertyIDStr := ctx.URLParam("propertyID")
	imageURL := ctx.URLParam("imageURL")

	if propertyIDStr == "" || imageURL == "" {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{
			"message": "propertyID and imageURL are required",
		})
		return
	}

	propertyID, err := strconv.ParseUint(propertyIDStr, 10, 32)
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{
			"message": "Invalid propertyID",
		})
		return
	}

	// Verify the unit belongs to the manager
	var property models.Property
	if err := storage.DB.Where("id = ? AND manager_id = ?", propertyID, userID).First(&property).Error; err != nil {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{
			"message": "Unit not found or not managed by user",
		})
		return
	}

	// Parse existing images
	var images []string
	if property.Images != "" {
		if err := json.Unmarshal([]byte(property.Images), &images); err != nil {
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(iris.Map{
				"message": "Failed to parse unit images",
			})
			return
		}
	}

	// Find and remove the image
	imageIndex := -1
	for i, img := range images {
		if img == imageURL {
			imageIndex = i
			break
		}
	}

	if imageIndex == -1 {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{
			"message": "Image not found in unit",
		})
		return
	}

	// Remove image from array
	images = append(images[:imageIndex], images[imageIndex+1:]...)

	// Update unit with new images array
	imagesJSON, _ := json.Marshal(images)
	property.Images = string(imagesJSON)

	if err := storage.DB.Save(&property).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{
			"message": "Failed to update unit",
		})
		return
	}

	// Delete image from Cloudinary
	if storage.DeleteFileFromCloudinary(imageURL) {
		ctx.JSON(iris.Map{
			"message": "Image deleted successfully",
			"success": true,
		})
	} else {
		// Even if Cloudinary deletion fails, we've removed it from the database
		fmt.Printf("WARNING: Failed to delete image from Cloudinary: %s\n", imageURL)
		ctx.JSON(iris.Map{
			"message": "Image removed from unit (Cloudinary deletion may have failed)",
			"success": true,
		})
	}
}

type InsertImages struct {
	images     []string
	propertyID string
}

type CreateUnitInput struct {
	ManagerID    uint     `json:"managerID"`
	Title        string   `json:"title" validate:"required,max=256"`
	BuildingName string   `json:"buildingName" validate:"max=256"`
	UnitName     string   `json:"unitName" validate:"max=256"`
	Description  string   `json:"description"`
	AddressLine1 string   `json:"addressLine1" validate:"required,max=512"`
	AddressLine2 string   `json:"addressLine2" validate:"max=512"`
	City         string   `json:"city" validate:"required,max=256"`
	State        string   `json:"state" validate:"required,max=256"`
	Zip          string   `json:"zip" validate:"required,max=32"`
	Country      string   `json:"country" validate:"required,max=128"`
	Bedrooms     int      `json:"bedrooms" validate:"gte=0,lte=10"`
	Bathrooms    float32  `json:"bathrooms" validate:"gte=0,lte=10"`
	MonthlyRent  float32  `json:"monthlyRent" validate:"required,gte=0"`
	Currency     string   `json:"currency" validate:"required"`
	Amenities    []string `json:"amenities"`
	Images       []string `json:"images"`
	IsActive     *bool    `json:"isActive"`
}

type UpdateUnitInput struct {
	Title        string   `json:"title" validate:"required,max=256"`
	BuildingName string   `json:"buildingName" validate:"max=256"`
	UnitName     string   `json:"unitName" validate:"max=256"`
	Description  string   `json:"description"`
	AddressLine1 string   `json:"addressLine1" validate:"required,max=512"`
	AddressLine2 string   `json:"addressLine2" validate:"max=512"`
	City         string   `json:"city" validate:"required,max=256"`
	State        string   `json:"state" validate:"required,max=256"`
	Zip          string   `json:"zip" validate:"required,max=32"`
	Country      string   `json:"country" validate:"required,max=128"`
	Bedrooms     int      `json:"bedrooms" validate:"gte=0,lte=10"`
	Bathrooms    float32  `json:"bathrooms" validate:"gte=0,lte=10"`
	MonthlyRent  float32  `json:"monthlyRent" validate:"required,gte=0"`
	Currency     string   `json:"currency" validate:"required"`
	Amenities    []string `json:"amenities"`
	Images       []string `json:"images"`
	IsActive     *bool    `json:"isActive"`
}

type AssignTenantInput struct {
	TenantID     uint   `json:"tenantID" validate:"required"`
	MoveInDate   string `json:"moveInDate"`
	LeaseEndDate string `json:"leaseEndDate"`
}
