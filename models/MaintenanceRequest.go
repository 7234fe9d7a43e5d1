package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type MaintenanceRequest struct {
	gorm.Model
	TenantID        uint       `json:"tenantID" gorm:"index;not null"`
	Tenant          User       `json:"tenant" gorm:"foreignKey:TenantID;references:ID"`
	PropertyID      *uint      `json:"propertyID" gorm:"index"`
	Title           string     `json:"title" gorm:"size:200;not null"`
	Description     string     `json:"description" gorm:"type:text"`
	Category        string     `json:"category" gorm:"size:50"`                                // plumbing, electrical, appliance, hvac, other
	Priority        string     `json:"priority" gorm:"type:varchar(16);default:normal;index"`  // low, normal, high, urgent
	Status          string     `json:"status" gorm:"type:varchar(20);default:open;index"`      // open, scheduled, in_progress, completed, cancelled
	Photos          string     `json:"photos"`                                                 // JSON array of URLs
	AssignedTo      *uint      `json:"assignedTo" gorm:"index"`
	ScheduledFor    *time.Time `json:"scheduledFor"`
	CompletedAt     *time.Time `json:"completedAt"`
	EntryPermission *bool      `json:"entryPermission"` // tenant allows entry while absent
}

// Custom JSON marshaling to convert the Photos string to an array
func (m *MaintenanceRequest) MarshalJSON() ([]byte, error) {
	type Alias MaintenanceRequest
	aux := &struct {
		Photos []string `json:"photos"`
		*Alias
	}{
		Photos: []string{},
		Alias:  (*Alias)(m),
	}

	if m.Photos != "" {
		var photos []string
		if err := json.Unmarshal([]byte(m.Photos), &photos); err == nil {
			aux.Photos = photos
		}
	}

	return json.Marshal(aux)
}
