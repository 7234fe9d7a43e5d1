package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserProfile represents the detailed profile information for a user
// This is separate from the User model which handles authentication
type UserProfile struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"userID" gorm:"not null;uniqueIndex"`
	User   User `json:"user" gorm:"foreignKey:UserID"`

	// Basic Information
	FirstName   string `json:"firstName" gorm:"size:100"`
	LastName    string `json:"lastName" gorm:"size:100"`
	AvatarURL   string `json:"avatarURL" gorm:"size:512"`
	DateOfBirth string `json:"dateOfBirth" gorm:"size:20"`
	Bio         string `json:"bio" gorm:"type:text"`

	// Contact
	PreferredContact string         `json:"preferredContact" gorm:"size:20"` // email, phone, portal
	Languages        datatypes.JSON `json:"languages"`                       // Array of strings

	// Emergency contact, shown to managers on maintenance visits
	EmergencyContactName  string `json:"emergencyContactName" gorm:"size:100"`
	EmergencyContactPhone string `json:"emergencyContactPhone" gorm:"size:30"`

	// Household
	Occupation    string         `json:"occupation" gorm:"size:100"`
	Company       string         `json:"company" gorm:"size:100"`
	HouseholdSize int            `json:"householdSize"`
	Pets          datatypes.JSON `json:"pets"` // Array of strings
	VehiclePlate  string         `json:"vehiclePlate" gorm:"size:20"`

	// Profile Status
	IsComplete           bool `json:"isComplete" gorm:"default:false"`
	CompletionPercentage int  `json:"completionPercentage" gorm:"default:0"`

	// Timestamps
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`
}

// Custom JSON marshaling to handle JSON fields properly
func (up *UserProfile) MarshalJSON() ([]byte, error) {
	type Alias UserProfile
	aux := &struct {
		Languages []string `json:"languages,omitempty"`
		Pets      []string `json:"pets,omitempty"`
		*Alias
	}{
		Languages: []string{},
		Pets:      []string{},
		Alias:     (*Alias)(up),
	}

	// Parse Languages JSON
	if up.Languages != nil {
		var languages []string
		if err := json.Unmarshal(up.Languages, &languages); err == nil {
			aux.Languages = languages
		}
	}

	// Parse Pets JSON
	if up.Pets != nil {
		var pets []string
		if err := json.Unmarshal(up.Pets, &pets); err == nil {
			aux.Pets = pets
		}
	}

	return json.Marshal(aux)
}

// CalculateCompletionPercentage calculates how complete the profile is
func (up *UserProfile) CalculateCompletionPercentage() int {
	fields := []bool{
		up.FirstName != "",
		up.LastName != "",
		up.AvatarURL != "",
		up.Bio != "",
		up.PreferredContact != "",
		up.EmergencyContactName != "",
		up.EmergencyContactPhone != "",
		up.Occupation != "",
	}

	completed := 0
	for _, field := range fields {
		if field {
			completed++
		}
	}

	percentage := (completed * 100) / len(fields)
	up.CompletionPercentage = percentage
	up.IsComplete = percentage >= 80 // Consider complete if 80% or more

	return percentage
}
