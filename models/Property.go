package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

type Property struct {
	gorm.Model
	ManagerID    uint    `json:"managerID" gorm:"index"`
	Title        string  `json:"title"`
	BuildingName string  `json:"buildingName" gorm:"index"`
	UnitName     string  `json:"unitName" gorm:"index"`
	Description  string  `json:"description"`
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 string  `json:"addressLine2"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Zip          string  `json:"zip"`
	Country      string  `json:"country"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    float32 `json:"bathrooms"`
	MonthlyRent  float32 `json:"monthlyRent"`
	Currency     string  `json:"currency"`
	Amenities    string  `json:"amenities"` // JSON string
	Images       string  `json:"images"`    // JSON array of URLs
	IsActive     *bool   `json:"isActive"`
	Tenants      []User  `json:"tenants" gorm:"foreignKey:PropertyID;references:ID"`
	Manager      User    `json:"manager" gorm:"foreignKey:ManagerID;references:ID"`
}

// DisplayName is what tenant-facing surfaces call the unit. Older imported
// records may only have a building or unit label filled in.
func (p *Property) DisplayName() string {
	if p.UnitName != "" {
		return p.UnitName
	}
	if p.Title != "" {
		return p.Title
	}
	return p.BuildingName
}

// Custom JSON marshaling to convert Images and Amenities strings to arrays
func (p *Property) MarshalJSON() ([]byte, error) {
	type Alias Property
	aux := &struct {
		Images    []string `json:"images"`
		Amenities []string `json:"amenities"`
		Manager   *User    `json:"manager,omitempty"`
		*Alias
	}{
		Images:    []string{},
		Amenities: []string{},
		Manager:   nil,
		Alias:     (*Alias)(p),
	}

	// Parse the JSON string to array for Images
	if p.Images != "" {
		var images []string
		if err := json.Unmarshal([]byte(p.Images), &images); err == nil {
			aux.Images = images
		}
	}

	// Parse the JSON string to array for Amenities
	if p.Amenities != "" {
		var amenities []string
		if err := json.Unmarshal([]byte(p.Amenities), &amenities); err == nil {
			aux.Amenities = amenities
		}
	}

	// Only include manager if it has an ID (is loaded) and avoid circular reference
	if p.Manager.ID > 0 {
		managerCopy := p.Manager
		managerCopy.ManagedProperties = nil
		managerCopy.Password = ""
		aux.Manager = &managerCopy
	}

	return json.Marshal(aux)
}
