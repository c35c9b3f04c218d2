package model

import "time"

// Category groups products in the catalogue.
type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// CategoryRequest is the admin payload for creating a category.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
