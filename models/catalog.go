package models

import "time"

type Category struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	Name          string        `json:"name" gorm:"uniqueIndex;not null"`
	Slug          string        `json:"slug" gorm:"uniqueIndex;not null"`
	Image         string        `json:"image"`
	Featured      bool          `json:"featured" gorm:"default:false"`
	SubCategories []SubCategory `json:"sub_categories,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type SubCategory struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"uniqueIndex;not null"`
	Slug       string    `json:"slug" gorm:"uniqueIndex;not null"`
	CategoryID uint      `json:"category_id" gorm:"not null"`
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Image      string    `json:"image"`
	Featured   bool      `json:"featured" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Product struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	Name          string       `json:"name" gorm:"not null"`
	Slug          string       `json:"slug" gorm:"uniqueIndex;not null"`
	Description   string       `json:"description"`
	Images        string       `json:"images"` // comma-separated URLs
	Price         float64      `json:"price" gorm:"not null"`
	OldPrice      float64      `json:"old_price"`
	CategoryID    uint         `json:"category_id" gorm:"not null"`
	Category      *Category    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	SubCategoryID *uint        `json:"sub_category_id"`
	SubCategory   *SubCategory `json:"sub_category,omitempty" gorm:"foreignKey:SubCategoryID"`
	CountInStock  int          `json:"count_in_stock" gorm:"default:0"`
	Featured      bool         `json:"featured" gorm:"default:false"`
	NewArrival    bool         `json:"new_arrival" gorm:"default:false"`
	TopDeal       bool         `json:"top_deal" gorm:"default:false"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
