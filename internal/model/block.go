package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for Block.Date.
const DateLayout = "2006-01-02"

type BlockID string

type Category string

const (
	CategoryWork     Category = "Work"
	CategoryHealth   Category = "Health"
	CategorySkill    Category = "Skill"
	CategoryPersonal Category = "Personal"
)

// Categories lists the closed category set in display order.
var Categories = []Category{CategoryWork, CategoryHealth, CategorySkill, CategoryPersonal}

func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryHealth, CategorySkill, CategoryPersonal:
		return true
	}
	return false
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

type Block struct {
	ID          BlockID   `json:"id"`
	Title       string    `json:"title"`
	Completed   bool      `json:"completed"`
	Category    Category  `json:"category"`
	Date        string    `json:"date"`
	IsRecurring bool      `json:"isRecurring"`
	Order       int       `json:"order"`
	TemplateID  BlockID   `json:"templateId,omitempty"` // set on generated instances
	CreatedAt   time.Time `json:"createdAt"`
}

// TemplateKey identifies the logical recurring task a block belongs to.
func (b Block) TemplateKey() BlockID {
	if b.TemplateID != "" {
		return b.TemplateID
	}
	return b.ID
}
