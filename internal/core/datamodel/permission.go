package datamodel

import (
	"time"

	"gorm.io/gorm"
)

// Permission is the smallest grantable capability, identified by a
// module:action code. Permissions form a tree through ParentID plus a
// materialized comma-separated ancestor-id Path for O(1) ancestry checks.
type Permission struct {
	ID          int64          `gorm:"primaryKey"`
	Name        string         `gorm:"column:name;size:50;not null"`
	Code        string         `gorm:"column:code;uniqueIndex;size:100;not null"`
	Description string         `gorm:"column:description;size:500"`
	Module      string         `gorm:"column:module;size:50;not null"`
	Action      string         `gorm:"column:action;size:50;not null"`
	Resource    string         `gorm:"column:resource;size:200"`
	Status      string         `gorm:"column:status;size:20;default:active"`
	Level       int            `gorm:"column:level;default:0"`
	IsSystem    bool           `gorm:"column:is_system;default:false"`
	Sort        int            `gorm:"column:sort;default:0"`
	ParentID    *int64         `gorm:"column:parent_id"`
	Path        string         `gorm:"column:path;size:500"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Roles []Role `gorm:"many2many:role_permissions"`
}

func (Permission) TableName() string { return "permissions" }
