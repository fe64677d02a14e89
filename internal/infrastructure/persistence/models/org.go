package models

import (
	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// BranchModel is the persistence model for the Branch domain entity.
type BranchModel struct {
	TenantAggregateModel
	Code        string           `gorm:"type:varchar(50);not null;index"`
	Name        string           `gorm:"type:varchar(200);not null"`
	Address     string           `gorm:"type:varchar(500)"`
	Phone       string           `gorm:"type:varchar(50)"`
	ManagerName string           `gorm:"type:varchar(200)"`
	Status      org.BranchStatus `gorm:"type:varchar(20);not null;default:'active'"`
	IsMain      bool             `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (BranchModel) TableName() string {
	return "branches"
}

// ToDomain converts the persistence model to a domain Branch entity.
func (m *BranchModel) ToDomain() *org.Branch {
	return &org.Branch{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		Code:        m.Code,
		Name:        m.Name,
		Address:     m.Address,
		Phone:       m.Phone,
		ManagerName: m.ManagerName,
		Status:      m.Status,
		IsMain:      m.IsMain,
	}
}

// FromDomain populates the persistence model from a domain Branch entity.
func (m *BranchModel) FromDomain(b *org.Branch) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.Code = b.Code
	m.Name = b.Name
	m.Address = b.Address
	m.Phone = b.Phone
	m.ManagerName = b.ManagerName
	m.Status = b.Status
	m.IsMain = b.IsMain
}

// BranchModelFromDomain creates a new persistence model from a domain Branch entity.
func BranchModelFromDomain(b *org.Branch) *BranchModel {
	m := &BranchModel{}
	m.FromDomain(b)
	return m
}
