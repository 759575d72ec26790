package models

import (
	"time"

	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared/valueobject"
	"github.com/safarhub/backend/internal/domain/vendor"
)

// UserModel is the persistence model for marketplace accounts.
// Vendors are users with account_type 'vendor' plus the approval columns.
type UserModel struct {
	AggregateModel
	Name             string               `gorm:"type:varchar(200);not null"`
	Email            string               `gorm:"type:varchar(200);not null;uniqueIndex"`
	Phone            string               `gorm:"type:varchar(50)"`
	AccountType      identity.AccountType `gorm:"type:varchar(20);not null;default:'user';index"`
	Address          valueobject.Address  `gorm:"type:jsonb"`
	IsVendorApproved bool                 `gorm:"not null;default:false;index:idx_users_vendor_visibility,priority:1"`
	IsVendorLocked   bool                 `gorm:"not null;default:false;index:idx_users_vendor_visibility,priority:2"`
	IsSeller         bool                 `gorm:"not null;default:false"`
	VendorServices   JSONList[string]     `gorm:"type:jsonb"`
	ApprovedAt       *time.Time
	LockedAt         *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToUser converts the model to the read-only user profile
func (m *UserModel) ToUser() identity.User {
	return identity.User{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		AccountType: m.AccountType,
		Address:     m.Address,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToVendor converts the model to a vendor aggregate
func (m *UserModel) ToVendor() *vendor.Vendor {
	services := make([]vendor.Service, 0, len(m.VendorServices))
	for _, s := range m.VendorServices {
		services = append(services, vendor.Service(s))
	}
	return &vendor.Vendor{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		IsApproved:        m.IsVendorApproved,
		IsLocked:          m.IsVendorLocked,
		IsSeller:          m.IsSeller,
		Services:          services,
		ApprovedAt:        m.ApprovedAt,
		LockedAt:          m.LockedAt,
	}
}

// UserModelFromVendor creates a persistence model from a vendor aggregate
func UserModelFromVendor(v *vendor.Vendor) *UserModel {
	services := make(JSONList[string], 0, len(v.Services))
	for _, s := range v.Services {
		services = append(services, string(s))
	}
	m := &UserModel{
		Name:             v.Name,
		Email:            v.Email,
		Phone:            v.Phone,
		AccountType:      identity.AccountTypeVendor,
		IsVendorApproved: v.IsApproved,
		IsVendorLocked:   v.IsLocked,
		IsSeller:         v.IsSeller,
		VendorServices:   services,
		ApprovedAt:       v.ApprovedAt,
		LockedAt:         v.LockedAt,
	}
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	return m
}
