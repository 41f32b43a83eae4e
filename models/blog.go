package models

import "time"

type BlogPost struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Title         string     `json:"title" gorm:"not null"`
	Slug          string     `json:"slug" gorm:"uniqueIndex;not null"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"content"` // HTML or markdown
	AuthorName    string     `json:"author_name"`
	FeaturedImage string     `json:"featured_image"`
	Categories    string     `json:"categories"` // comma-separated tags
	Published     bool       `json:"published" gorm:"default:true"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
