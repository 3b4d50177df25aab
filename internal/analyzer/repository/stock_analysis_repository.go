package repository

import (
	"context"
	"errors"

	"stock-whisperer/internal/entity"

	"gorm.io/gorm"
)

type stockAnalysisRepository struct {
	db *gorm.DB
}

func NewStockAnalysisRepository(db *gorm.DB) StockAnalysisRepository {
	return &stockAnalysisRepository{db: db}
}

func (r *stockAnalysisRepository) Create(ctx context.Context, analysis *entity.StockAnalysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

func (r *stockAnalysisRepository) GetLatest(ctx context.Context, ticker string) (*entity.StockAnalysis, error) {
	var analysis entity.StockAnalysis
	err := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("created_at DESC").
		First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &analysis, nil
}

func (r *stockAnalysisRepository) List(ctx context.Context, ticker string, limit int) ([]entity.StockAnalysis, error) {
	if limit <= 0 {
		limit = 20
	}
	var analyses []entity.StockAnalysis
	err := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("created_at DESC").
		Limit(limit).
		Find(&analyses).Error
	if err != nil {
		return nil, err
	}
	return analyses, nil
}
