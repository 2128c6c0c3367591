package models

import "gorm.io/datatypes"

// Profile holds the career details collected by the profile-setup wizard.
// A row is created automatically whenever a user registers or first signs in
// through Google.
type Profile struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	Headline string `json:"headline"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
	Phone    string `json:"phone"`

	// Skills is a JSON array of skill names; Links maps site names to URLs.
	Skills datatypes.JSON `json:"skills,omitempty"`
	Links  datatypes.JSON `json:"links,omitempty"`

	Education  datatypes.JSON `json:"education,omitempty"`
	Experience datatypes.JSON `json:"experience,omitempty"`

	Completed bool `gorm:"default:false" json:"completed"`
}
