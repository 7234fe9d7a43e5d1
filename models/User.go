package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName           string         `json:"firstName"`
	LastName            string         `json:"lastName"`
	Email               string         `json:"email" gorm:"uniqueIndex"`
	PhoneNumber         string         `json:"phoneNumber" gorm:"index"`
	Password            string         `json:"password"`
	SocialLogin         bool           `json:"socialLogin"`
	SocialProvider      string         `json:"socialProvider"`
	AvatarURL           string         `json:"avatarURL"`
	PropertyID          *uint          `json:"propertyID" gorm:"index"` // tenants: the unit they rent
	Property            *Property      `json:"property" gorm:"foreignKey:PropertyID;references:ID"`
	ManagedProperties   []Property     `json:"managedProperties" gorm:"foreignKey:ManagerID;references:ID"`
	PushTokens          datatypes.JSON `json:"pushTokens"`
	AllowsNotifications *bool          `json:"allowsNotifications"`
	MoveInDate          string         `json:"moveInDate"`
	LeaseEndDate        string         `json:"leaseEndDate"`
	Role                string         `json:"role" gorm:"type:varchar(20);default:tenant;index"` // tenant, manager, admin, super_admin
}

// Custom JSON marshaling to handle JSON fields properly
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		PushTokens        []string  `json:"pushTokens,omitempty"`
		Property          *Property `json:"property,omitempty"`
		ManagedProperties []Property `json:"managedProperties,omitempty"`
		*Alias
	}{
		PushTokens: []string{},
		Alias:      (*Alias)(u),
	}

	// Parse PushTokens JSON
	if u.PushTokens != nil {
		var pushTokens []string
		if err := json.Unmarshal(u.PushTokens, &pushTokens); err == nil {
			aux.PushTokens = pushTokens
		}
	}

	// Only include the unit when it is loaded, and strip its back references
	// to avoid circular serialization
	if u.Property != nil && u.Property.ID > 0 {
		propertyCopy := *u.Property
		propertyCopy.Tenants = nil
		aux.Property = &propertyCopy
	}

	return json.Marshal(aux)
}
