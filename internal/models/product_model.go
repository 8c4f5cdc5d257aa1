package models

import "time"

// Product belongs to exactly one store. Price is in major currency units.
// Stock is nil for untracked (unlimited) inventory; when tracked it must never
// go negative, so decrements happen transactionally in the repository.
type Product struct {
	ID          string    `json:"id" firestore:"-"` // Document ID, auto-generated
	Name        string    `json:"name" firestore:"name"`
	Description string    `json:"description,omitempty" firestore:"description"`
	Price       float64   `json:"price" firestore:"price"`
	Stock       *int64    `json:"stock,omitempty" firestore:"stock"`
	Published   bool      `json:"published" firestore:"published"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// TracksStock reports whether the product has a finite inventory count.
func (p *Product) TracksStock() bool {
	return p.Stock != nil
}
