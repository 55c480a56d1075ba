package datamodel

import (
	"time"

	"gorm.io/gorm"
)

type Role struct {
	ID          int64          `gorm:"primaryKey"`
	Name        string         `gorm:"column:name;uniqueIndex;size:50;not null"`
	Code        string         `gorm:"column:code;uniqueIndex;size:50;not null"`
	Description string         `gorm:"column:description;size:500"`
	Status      string         `gorm:"column:status;size:20;default:active"`
	Level       int            `gorm:"column:level;default:0"`
	IsSystem    bool           `gorm:"column:is_system;default:false"`
	Sort        int            `gorm:"column:sort;default:0"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Permissions []Permission `gorm:"many2many:role_permissions"`
}

func (Role) TableName() string { return "roles" }
