// Package datamodel holds the gorm persistence records for the access
// management schema. The structs stay behavior-free: permission and status
// logic lives in the permission package so the records can be loaded, faked
// and asserted on without a live store.
package datamodel

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusBanned   = "banned"
)

type User struct {
	ID           int64          `gorm:"primaryKey"`
	Username     string         `gorm:"column:username;uniqueIndex;size:50;not null"`
	Nickname     string         `gorm:"column:nickname;size:100"`
	PasswordHash string         `gorm:"column:password_hash;size:100;not null"`
	Phone        *string        `gorm:"column:phone;uniqueIndex"`
	Email        string         `gorm:"column:email;uniqueIndex;not null"`
	Status       string         `gorm:"column:status;size:20;default:active"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	LastLoginIP  string         `gorm:"column:last_login_ip"`
	RegisterIP   string         `gorm:"column:register_ip"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Roles []Role `gorm:"many2many:user_roles"`
}

func (User) TableName() string { return "users" }

// UserColumns lists every column except password_hash. Generic lookups must
// never project the hash; only the dedicated authentication paths read it.
const UserColumns = "id, username, nickname, phone, email, status, last_login_at, last_login_ip, register_ip, created_at, updated_at, deleted_at"
