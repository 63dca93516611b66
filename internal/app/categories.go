package app

import (
	"context"
	"log"

	"trivia-quiz/internal/domain"
)

// CategorySource lists the trivia categories offered by the question source.
type CategorySource interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// CategoryCatalog serves categories, falling back to a fixed list when the source fails.
type CategoryCatalog struct {
	source CategorySource
}

func NewCategoryCatalog(source CategorySource) *CategoryCatalog {
	return &CategoryCatalog{source: source}
}

// List never returns an empty list.
func (c *CategoryCatalog) List(ctx context.Context) []domain.Category {
	if c == nil || c.source == nil {
		return FallbackCategories()
	}
	categories, err := c.source.Categories(ctx)
	if err != nil {
		log.Printf("categories: source=fallback reason=%v", err)
		return FallbackCategories()
	}
	if len(categories) == 0 {
		log.Printf("categories: source=fallback reason=empty list")
		return FallbackCategories()
	}
	return categories
}

// FallbackCategories returns the categories offered when the source is unreachable.
func FallbackCategories() []domain.Category {
	return []domain.Category{
		{ID: 9, Name: "General Knowledge"},
		{ID: 17, Name: "Science & Nature"},
		{ID: 22, Name: "Geography"},
		{ID: 23, Name: "History"},
		{ID: 11, Name: "Entertainment: Film"},
	}
}
