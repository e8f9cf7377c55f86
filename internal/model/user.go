package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// IsStaff 教师与管理员都可以出题和管理试卷
func (r UserRole) IsStaff() bool {
	return r == Teacher || r == Admin
}

// IsSuperuser 仅管理员可以删除整套试卷
func (r UserRole) IsSuperuser() bool {
	return r == Admin
}

// swagger:model User
type User struct {
	BaseModel
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;default:'student'" json:"role"`
	LastLogin time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
