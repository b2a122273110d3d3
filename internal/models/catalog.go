package models

import "time"

// Catalog models. The engine only reads these; catalog CRUD lives elsewhere.
type Package struct {
	ID        string  `gorm:"type:uuid;primaryKey"`
	Name      string  `gorm:"not null;unique"`
	UnitPrice float64 `gorm:"not null"` // per seat
	Active    bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AddOn struct {
	ID        string  `gorm:"type:uuid;primaryKey"`
	Name      string  `gorm:"not null;unique"`
	Price     float64 `gorm:"not null"` // flat, per deal
	Active    bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Organization struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
