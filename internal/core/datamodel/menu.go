package datamodel

import (
	"time"

	"gorm.io/gorm"
)

const (
	MenuTypeDirectory = "directory"
	MenuTypeMenu      = "menu"
	MenuTypeButton    = "button"
)

// Menu is a UI navigation record, not a security boundary. Visibility is
// derived: a menu with no linked permissions is visible to everyone, else to
// principals holding at least one linked permission code.
type Menu struct {
	ID        int64          `gorm:"primaryKey"`
	Name      string         `gorm:"column:name;size:50;not null"`
	Title     string         `gorm:"column:title;size:50;not null"`
	Icon      string         `gorm:"column:icon;size:50"`
	Route     string         `gorm:"column:route;size:200;not null"`
	Component string         `gorm:"column:component;size:200"`
	Redirect  string         `gorm:"column:redirect;size:200"`
	Type      string         `gorm:"column:type;size:20;not null"`
	Status    string         `gorm:"column:status;size:20;default:active"`
	Hidden    bool           `gorm:"column:hidden;default:false"`
	Sort      int            `gorm:"column:sort;default:0"`
	ParentID  *int64         `gorm:"column:parent_id"`
	Path      string         `gorm:"column:path;size:500"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Permissions []Permission `gorm:"many2many:menu_permissions"`
}

func (Menu) TableName() string { return "menus" }
