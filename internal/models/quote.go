package models

import "time"

// Deal / quote models
type PaymentKind string

const (
	PaymentNet    PaymentKind = "NET"
	PaymentPrepay PaymentKind = "PREPAY"
	PaymentBoth   PaymentKind = "BOTH"
)

type QuoteStatus string

const (
	QuotePending  QuoteStatus = "Pending"
	QuoteApproved QuoteStatus = "Approved"
	QuoteRejected QuoteStatus = "Rejected"
	QuoteSold     QuoteStatus = "Sold"
)

type Quote struct {
	ID             string       `gorm:"type:uuid;primaryKey"`
	OrganizationID string       `gorm:"type:uuid;not null;index"`
	Organization   Organization `gorm:"foreignKey:OrganizationID"`
	PackageID      string       `gorm:"type:uuid;not null;index"`
	Package        Package      `gorm:"foreignKey:PackageID"`
	CustomerName   string       `gorm:"not null"`
	Seats          int          `gorm:"not null"`
	PaymentKind    PaymentKind  `gorm:"size:10;not null"`
	// NetDays is set iff PaymentKind is NET or BOTH; PrepayPercent iff PREPAY or BOTH.
	NetDays         *int
	PrepayPercent   *float64
	Subtotal        float64
	DiscountPercent float64
	Total           float64
	// Status is stored redundantly; every step mutation recomputes it in the
	// same transaction. Sold is terminal and never downgraded.
	Status       QuoteStatus `gorm:"size:12;not null;index"`
	AddOns       []AddOn     `gorm:"many2many:quote_add_ons"`
	DocumentHTML *string
	Workflow     *Workflow `gorm:"foreignKey:QuoteID"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}
