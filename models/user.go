package models

import (
	"time"
)

// Role ids mirror the roles table; privileges grow with the id.
const (
	RoleStudent            = 1
	RoleTeachingAssistant  = 2
	RoleInstructor         = 3
	RoleAdministrator      = 4
	RoleSuperAdministrator = 5
)

type User struct {
	ID              int        `gorm:"primaryKey;column:id" json:"id"`
	Name            string     `gorm:"column:name;unique" json:"name"`
	FullName        string     `gorm:"column:fullname" json:"fullname"`
	Email           string     `gorm:"column:email" json:"email"`
	CryptedPassword string     `gorm:"column:crypted_password" json:"-"`
	RoleID          int        `gorm:"column:role_id" json:"role_id"`
	ParentID        *int       `gorm:"column:parent_id" json:"parent_id,omitempty"`
	TimezonePref    *string    `gorm:"column:timezonepref" json:"timezonepref,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt       *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	ID   int    `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name" json:"name"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

// HasTAPrivileges reports whether the user is at least a teaching assistant.
func (u User) HasTAPrivileges() bool {
	return u.RoleID >= RoleTeachingAssistant
}

// HasAdminPrivileges reports whether the user is an administrator or above.
func (u User) HasAdminPrivileges() bool {
	return u.RoleID >= RoleAdministrator
}

func (u User) IsInstructor() bool {
	return u.RoleID == RoleInstructor
}

func (u User) IsTeachingAssistant() bool {
	return u.RoleID == RoleTeachingAssistant
}

// Timezone returns the trimmed preferred timezone, or "" when unset.
func (u User) Timezone() string {
	if u.TimezonePref == nil {
		return ""
	}
	return trimmed(*u.TimezonePref)
}
