package models

import (
	"time"

	"github.com/unimerch/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
// Username and email are unique per tenant, case-insensitively; the
// indexes are created by the migrations.
type UserModel struct {
	TenantAggregateModel
	Username          string              `gorm:"type:varchar(50);not null"`
	Email             string              `gorm:"type:varchar(255);not null"`
	PasswordHash      string              `gorm:"type:varchar(255);not null"`
	FullName          string              `gorm:"type:varchar(100)"`
	StudentID         string              `gorm:"type:varchar(20)"`
	Phone             string              `gorm:"type:varchar(20)"`
	Address           string              `gorm:"type:varchar(500)"`
	AvatarURL         string              `gorm:"type:varchar(500)"`
	Role              identity.Role       `gorm:"type:varchar(20);not null;default:'user';index"`
	Status            identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt       *time.Time
	LastLoginIP       string `gorm:"type:varchar(45)"`
	FailedAttempts    int    `gorm:"not null;default:0"`
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Username:            m.Username,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		FullName:            m.FullName,
		StudentID:           m.StudentID,
		Phone:               m.Phone,
		Address:             m.Address,
		AvatarURL:           m.AvatarURL,
		Role:                m.Role,
		Status:              m.Status,
		LastLoginAt:         m.LastLoginAt,
		LastLoginIP:         m.LastLoginIP,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
		PasswordChangedAt:   m.PasswordChangedAt,
	}
}

// FromDomain populates the persistence model from a domain User entity
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.FullName = u.FullName
	m.StudentID = u.StudentID
	m.Phone = u.Phone
	m.Address = u.Address
	m.AvatarURL = u.AvatarURL
	m.Role = u.Role
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
	m.PasswordChangedAt = u.PasswordChangedAt
}

// UserModelFromDomain creates a new persistence model from a domain User entity
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
