package models

import "gorm.io/datatypes"

// Resume stores the text a user submitted for enhancement alongside any
// structured sections the client extracted from the uploaded file.
type Resume struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`

	Title   string `json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`

	Sections datatypes.JSON `json:"sections,omitempty"`

	Feedback []Feedback `gorm:"foreignKey:ResumeID" json:"feedback,omitempty"`
}
