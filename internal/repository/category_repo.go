package repository

import (
	"context"

	"bakatter.app/server/internal/model"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	FindAll(ctx context.Context) ([]model.Category, error)
	Seed(ctx context.Context, names []string) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Seed(ctx context.Context, names []string) error {
	for _, name := range names {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&model.Category{}).
			Where("name = ?", name).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := r.db.WithContext(ctx).Create(&model.Category{Name: name}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
