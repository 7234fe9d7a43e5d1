package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"tenantdesk-server/models"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

// GetUserProfile retrieves the user's profile information
func GetUserProfile(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	var profile models.UserProfile
	if err := storage.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		// If no profile exists, return empty profile
		ctx.JSON(iris.Map{
			"success": true,
			"profile": iris.Map{
				"id":                    0,
				"firstName":             "",
				"lastName":              "",
				"avatarURL":             "",
				"dateOfBirth":           "",
				"bio":                   "",
				"preferredContact":      "",
				"languages":             []string{},
				"emergencyContactName":  "",
				"emergencyContactPhone": "",
				"occupation":            "",
				"company":               "",
				"householdSize":         0,
				"pets":                  []string{},
				"vehiclePlate":          "",
				"isComplete":            false,
				"completionPercentage":  0,
			},
		})
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"profile": profile,
	})
}

// CreateOrUpdateUserProfile creates or updates the user's profile
func CreateOrUpdateUserProfile(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	var input CreateOrUpdateProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	// Upload avatar if provided and not already a Cloudinary URL
	avatarURL := input.AvatarURL
	if avatarURL != "" && !strings.Contains(avatarURL, "res.cloudinary.com") {
		// Generate unique filename with timestamp
		timestamp := time.Now().UnixNano() / int64(time.Millisecond)
		publicID := fmt.Sprintf("profiles/%d/avatar_%d", user.ID, timestamp)
		urlMap := storage.UploadBase64Image(avatarURL, publicID)
		if urlMap != nil && urlMap["url"] != "" {
			avatarURL = urlMap["url"]
		}
	}

	// Convert arrays to JSON
	languagesJSON, _ := json.Marshal(input.Languages)
	petsJSON, _ := json.Marshal(input.Pets)

	// Check if profile exists
	var existingProfile models.UserProfile
	err := storage.DB.Where("user_id = ?", user.ID).First(&existingProfile).Error

	if err != nil {
		// Create new profile
		profile := models.UserProfile{
			UserID:                user.ID,
			FirstName:             input.FirstName,
			LastName:              input.LastName,
			AvatarURL:             avatarURL,
			DateOfBirth:           input.DateOfBirth,
			Bio:                   input.Bio,
			PreferredContact:      input.PreferredContact,
			Languages:             languagesJSON,
			EmergencyContactName:  input.EmergencyContactName,
			EmergencyContactPhone: input.EmergencyContactPhone,
			Occupation:            input.Occupation,
			Company:               input.Company,
			HouseholdSize:         input.HouseholdSize,
			Pets:                  petsJSON,
			VehiclePlate:          input.VehiclePlate,
		}

		// Calculate completion percentage
		profile.CalculateCompletionPercentage()

		if err := storage.DB.Create(&profile).Error; err != nil {
			ctx.StopWithStatus(http.StatusInternalServerError)
			return
		}

		ctx.JSON(iris.Map{
			"success": true,
			"profile": profile,
			"message": "Profile created successfully",
		})
	} else {
		// Update existing profile
		updates := map[string]interface{}{
			"first_name":              input.FirstName,
			"last_name":               input.LastName,
			"avatar_url":              avatarURL,
			"date_of_birth":           input.DateOfBirth,
			"bio":                     input.Bio,
			"preferred_contact":       input.PreferredContact,
			"languages":               languagesJSON,
			"emergency_contact_name":  input.EmergencyContactName,
			"emergency_contact_phone": input.EmergencyContactPhone,
			"occupation":              input.Occupation,
			"company":                 input.Company,
			"household_size":          input.HouseholdSize,
			"pets":                    petsJSON,
			"vehicle_plate":           input.VehiclePlate,
		}

		if err := storage.DB.Model(&existingProfile).Updates(updates).Error; err != nil {
			ctx.StopWithStatus(http.StatusInternalServerError)
			return
		}

		// Recalculate completion percentage
		existingProfile.CalculateCompletionPercentage()
		storage.DB.Save(&existingProfile)

		ctx.JSON(iris.Map{
			"success": true,
			"profile": existingProfile,
			"message": "Profile updated successfully",
		})
	}
}

// GetUserProfileStatus returns the profile completion status
func GetUserProfileStatus(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	// Get user email from the User table
	var userModel models.User
	if err := storage.DB.First(&userModel, user.ID).Error; err != nil {
		ctx.StopWithStatus(http.StatusNotFound)
		return
	}

	var profile models.UserProfile
	if err := storage.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		// No profile exists
		ctx.JSON(iris.Map{
			"success": true,
			"profile": iris.Map{
				"firstName": "",
				"lastName":  "",
				"bio":       "",
				"avatarURL": "",
				"email":     userModel.Email,
			},
			"status": iris.Map{
				"canRequestMaintenance": false,
				"completionPercentage":  0,
				"status":                "incomplete",
				"message":               "Please create your profile before requesting maintenance",
				"hasName":               false,
				"hasEmergencyContact":   false,
				"hasAvatar":             false,
			},
		})
		return
	}

	// Check profile completion criteria
	hasName := profile.FirstName != "" || profile.LastName != ""
	hasEmergencyContact := profile.EmergencyContactName != "" && profile.EmergencyContactPhone != ""
	hasAvatar := profile.AvatarURL != ""

	// Calculate completion percentage
	completionCount := 0
	totalFields := 3 // name, emergency contact, avatar

	if hasName {
		completionCount++
	}
	if hasEmergencyContact {
		completionCount++
	}
	if hasAvatar {
		completionCount++
	}

	completionPercentage := (completionCount * 100) / totalFields

	// Determine status
	var status string
	var message string
	var canRequestMaintenance bool

	if hasName {
		canRequestMaintenance = true
		if completionPercentage >= 100 {
			status = "complete"
			message = "Profile is complete"
		} else if completionPercentage >= 66 {
			status = "good"
			message = "Profile is mostly complete"
		} else {
			status = "basic"
			message = "Profile has basic info"
		}
	} else {
		canRequestMaintenance = false
		status = "incomplete"
		message = "Please add your name before requesting maintenance"
	}

	ctx.JSON(iris.Map{
		"success": true,
		"profile": iris.Map{
			"firstName": profile.FirstName,
			"lastName":  profile.LastName,
			"bio":       profile.Bio,
			"avatarURL": profile.AvatarURL,
			"email":     userModel.Email,
		},
		"status": iris.Map{
			"canRequestMaintenance": canRequestMaintenance,
			"completionPercentage":  completionPercentage,
			"status":                status,
			"message":               message,
			"hasName":               hasName,
			"hasEmergencyContact":   hasEmergencyContact,
			"hasAvatar":             hasAvatar,
		},
	})
}

// DeleteUserProfile deletes the user's profile
func DeleteUserProfile(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	var profile models.UserProfile
	if err := storage.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		ctx.StopWithStatus(http.StatusNotFound)
		return
	}

	if err := storage.DB.Delete(&profile).Error; err != nil {
		ctx.StopWithStatus(http.StatusInternalServerError)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Profile deleted successfully",
	})
}

// Input structures
type CreateOrUpdateProfileInput struct {
	FirstName             string   `json:"firstName"`
	LastName              string   `json:"lastName"`
	AvatarURL             string   `json:"avatarURL"`
	DateOfBirth           string   `json:"dateOfBirth"`
	Bio                   string   `json:"bio"`
	PreferredContact      string   `json:"preferredContact"`
	Languages             []string `json:"languages"`
	EmergencyContactName  string   `json:"emergencyContactName"`
	EmergencyContactPhone string   `json:"emergencyContactPhone"`
	Occupation            string   `json:"occupation"`
	Company               string   `json:"company"`
	HouseholdSize         int      `json:"householdSize"`
	Pets                  []string `json:"pets"`
	VehiclePlate          string   `json:"vehiclePlate"`
}
