package models

// Feedback is one AI enhancement pass over a resume: the model's critique and
// the rewritten text it proposed.
type Feedback struct {
	BaseModel

	ResumeID string `gorm:"type:uuid;not null;index" json:"resume_id"`

	Critique string `gorm:"type:text" json:"critique"`
	Enhanced string `gorm:"type:text" json:"enhanced"`

	Model string `json:"model"`
}
