package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member is the profile of a person participating in consortiums.
// The engine only reads profiles, the members API manages them.
type Member struct {
	DefaultModel
	ManagerID uuid.UUID `gorm:"type:uuid;index"`
	Name      string
	Phone     string
	PixKey    string
}

func (m Member) Self() string {
	return "Member"
}

func (m *Member) BeforeSave(_ *gorm.DB) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Phone = strings.TrimSpace(m.Phone)
	m.PixKey = strings.TrimSpace(m.PixKey)

	if m.Name == "" {
		return ErrMemberNameEmpty
	}

	return nil
}
