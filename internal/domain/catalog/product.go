package catalog

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrAlreadyExists     = errors.New("catalog: product already exists")
	ErrInvalidName       = errors.New("catalog: name is required")
	ErrInvalidPrice      = errors.New("catalog: price must be zero or greater")
	ErrInvalidStock      = errors.New("catalog: stock must be zero or greater")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

// Product is the catalog entry the checkout core operates on. Stock is mutated
// only through Reserve/Release; the rating aggregate only through ApplyRatingDelta.
// The stored aggregate is the raw (sum, count) pair; the rounded average is
// derived on read so incremental updates cannot drift.
type Product struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	Stock       int
	RatingSum   int64
	RatingCount int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(id int64, name string, price decimal.Decimal, stock int) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	now := time.Now().UTC()
	return &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AverageRating derives the mean of all stored rating values, rounded to one
// decimal place. A product without ratings reports 0.
func (p *Product) AverageRating() float64 {
	if p.RatingCount == 0 {
		return 0
	}
	avg := float64(p.RatingSum) / float64(p.RatingCount)
	return math.Round(avg*10) / 10
}

// Reserve decrements stock when at least quantity units are available.
func (p *Product) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return ErrInsufficientStock
	}
	p.Stock -= quantity
	p.touch()
	return nil
}

// Release returns previously reserved units to stock.
func (p *Product) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.Stock += quantity
	p.touch()
	return nil
}

// ApplyRatingDelta adjusts the raw rating aggregate. Deltas come from the
// rating maintainer: (+value, +1) on insert, (value-old, 0) on update,
// (-value, -1) on delete.
func (p *Product) ApplyRatingDelta(deltaSum, deltaCount int64) {
	p.RatingSum += deltaSum
	p.RatingCount += deltaCount
	if p.RatingCount <= 0 {
		p.RatingSum = 0
		p.RatingCount = 0
	}
	p.touch()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
