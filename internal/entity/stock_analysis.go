package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StockAnalysis struct {
	ID             int64          `json:"id"`
	Ticker         string         `json:"ticker"`
	Price          float64        `json:"price"`
	Score          float64        `json:"score"`
	Recommendation string         `json:"recommendation"`
	Results        datatypes.JSON `gorm:"type:jsonb" json:"results"`
	Factors        datatypes.JSON `gorm:"type:jsonb" json:"factors"`
	KeyFactors     pq.StringArray `gorm:"type:text[]" json:"key_factors"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"deleted_at"`
}

func (StockAnalysis) TableName() string {
	return "stock_analyses"
}
