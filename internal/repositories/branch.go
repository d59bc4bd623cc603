package repositories

import (
	"context"
	"fmt"

	"upiroute/internal/models"

	"gorm.io/gorm"
)

// BranchRepository reads the bank branch directory for geo resolution.
type BranchRepository interface {
	GetByCode(ctx context.Context, branchCode string) (*models.BankBranch, error)
}

type branchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) GetByCode(ctx context.Context, branchCode string) (*models.BankBranch, error) {
	var branch models.BankBranch
	if err := r.db.WithContext(ctx).Where("branch_code = ?", branchCode).First(&branch).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bank branch: %w", err)
	}
	return &branch, nil
}
