package repo

import (
	"context"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
)

func (r *GormRepo) ProductsByCategory(ctx context.Context, code string, offset, limit int) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).
		Where("category_code = ?", code).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *GormRepo) ProductsOnSale(ctx context.Context, offset, limit int) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).
		Where("on_sale = ?", true).
		Order("title ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, err
}
