package models

import (
	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/media"
)

// UploadedFileModel is the persistence model for an uploaded asset
type UploadedFileModel struct {
	BaseModel
	TenantID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	OwnerID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	Folder      media.Folder `gorm:"type:varchar(30);not null"`
	Filename    string       `gorm:"type:varchar(255);not null;uniqueIndex"`
	Key         string       `gorm:"column:object_key;type:varchar(500);not null"`
	ContentType string       `gorm:"type:varchar(100);not null"`
	Size        int64        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UploadedFileModel) TableName() string {
	return "uploaded_files"
}

// ToDomain converts the persistence model to a domain Asset
func (m *UploadedFileModel) ToDomain() *media.Asset {
	return &media.Asset{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		OwnerID:     m.OwnerID,
		Folder:      m.Folder,
		Filename:    m.Filename,
		Key:         m.Key,
		ContentType: m.ContentType,
		Size:        m.Size,
	}
}

// FromDomain populates the persistence model from a domain Asset
func (m *UploadedFileModel) FromDomain(a *media.Asset) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.TenantID = a.TenantID
	m.OwnerID = a.OwnerID
	m.Folder = a.Folder
	m.Filename = a.Filename
	m.Key = a.Key
	m.ContentType = a.ContentType
	m.Size = a.Size
}

// UploadedFileModelFromDomain creates a new persistence model from a domain Asset
func UploadedFileModelFromDomain(a *media.Asset) *UploadedFileModel {
	m := &UploadedFileModel{}
	m.FromDomain(a)
	return m
}
