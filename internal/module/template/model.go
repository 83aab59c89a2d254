package template

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Category groups templates in the app's browse screens.
type Category string

const (
	CategoryQuickFixes  Category = "quick_fixes"
	CategoryBackgrounds Category = "backgrounds"
	CategoryBusiness    Category = "business"
	CategorySeasonal    Category = "seasonal"
)

// Template is a curated edit prompt surfaced to users by role.
type Template struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	PromptText  string         `json:"prompt_text" gorm:"column:prompt_text;not null"`
	RoleTags    pq.StringArray `json:"role_tags" gorm:"column:role_tags;type:text[]"`
	Category    Category       `json:"category" gorm:"not null"`
	PreviewURL  string         `json:"preview_url,omitempty" gorm:"column:preview_url"`
	UsageCount  int64          `json:"usage_count" gorm:"column:usage_count;default:0"`
	IsActive    bool           `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt   time.Time      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the database table name.
func (Template) TableName() string {
	return "templates"
}

// AvailableFor reports whether the template should be shown to a user
// with the given role. An empty tag list means available to everyone.
func (t *Template) AvailableFor(role string) bool {
	if !t.IsActive {
		return false
	}
	if len(t.RoleTags) == 0 {
		return true
	}
	for _, tag := range t.RoleTags {
		if tag == role {
			return true
		}
	}
	return false
}
