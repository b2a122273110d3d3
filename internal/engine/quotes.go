package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mverot/dealdesk/internal/models"
	"github.com/mverot/dealdesk/validation"
	"gorm.io/gorm"
)

// CatalogResolver is the consumed catalog collaborator. Implementations
// return *ResolutionError for unmatched references and wrap infrastructure
// failures in *ExternalServiceError.
type CatalogResolver interface {
	ResolvePackage(ctx context.Context, ref string) (models.Package, error)
	ResolveAddOns(ctx context.Context, refs []string) ([]models.AddOn, error)
}

// ContractInput is the deal summary handed to the document generator.
type ContractInput struct {
	CustomerName  string
	PackageName   string
	Seats         int
	AddOnNames    []string
	PaymentKind   models.PaymentKind
	NetDays       *int
	PrepayPercent *float64
	Total         float64
}

// DocumentGenerator drafts a contract document as HTML. Best effort: errors
// are logged and the quote keeps a nil document.
type DocumentGenerator interface {
	Generate(ctx context.Context, in ContractInput) (string, error)
}

// CreateQuoteInput is a partially specified deal; package and add-ons may be
// referenced by id or by (fuzzy) name.
type CreateQuoteInput struct {
	OrganizationID  string             `json:"organizationId"`
	CustomerName    string             `json:"customerName"`
	PackageRef      string             `json:"package"`
	Seats           int                `json:"seats"`
	DiscountPercent float64            `json:"discountPercent"`
	AddOnRefs       []string           `json:"addOns,omitempty"`
	PaymentKind     models.PaymentKind `json:"paymentKind"`
	NetDays         *int               `json:"netDays,omitempty"`
	PrepayPercent   *float64           `json:"prepayPercent,omitempty"`
}

// QuoteService composes catalog resolution, pricing, chain building, and
// workflow initialization into one atomic deal-creation operation.
type QuoteService struct {
	db      *gorm.DB
	catalog CatalogResolver
	docs    DocumentGenerator // nil disables contract drafting
}

func NewQuoteService(db *gorm.DB, catalog CatalogResolver, docs DocumentGenerator) *QuoteService {
	return &QuoteService{db: db, catalog: catalog, docs: docs}
}

// Create validates and resolves the deal, prices it, and persists the quote
// together with its initialized workflow in a single transaction. Contract
// drafting happens after commit since it is advisory.
func (s *QuoteService) Create(ctx context.Context, in CreateQuoteInput) (*models.Quote, Pricing, error) {
	if err := validateQuoteInput(in); err != nil {
		return nil, Pricing{}, err
	}

	var orgCount int64
	if err := s.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ?", in.OrganizationID).Count(&orgCount).Error; err != nil {
		return nil, Pricing{}, err
	}
	if orgCount == 0 {
		return nil, Pricing{}, &ResolutionError{Kind: "organization", Ref: in.OrganizationID}
	}

	pkg, err := s.catalog.ResolvePackage(ctx, in.PackageRef)
	if err != nil {
		return nil, Pricing{}, err
	}
	addOns, err := s.catalog.ResolveAddOns(ctx, in.AddOnRefs)
	if err != nil {
		return nil, Pricing{}, err
	}

	addOnPrices := make([]float64, 0, len(addOns))
	for _, a := range addOns {
		addOnPrices = append(addOnPrices, a.Price)
	}
	pricing, err := ComputePricing(PricingInput{
		UnitPrice:       pkg.UnitPrice,
		Seats:           in.Seats,
		AddOnPrices:     addOnPrices,
		DiscountPercent: in.DiscountPercent,
	})
	if err != nil {
		return nil, Pricing{}, err
	}

	netDays := 0
	if in.NetDays != nil {
		netDays = *in.NetDays
	}
	chain := BuildChain(in.DiscountPercent, in.PaymentKind, netDays)

	quote := models.Quote{
		ID:              uuid.NewString(),
		OrganizationID:  in.OrganizationID,
		PackageID:       pkg.ID,
		CustomerName:    in.CustomerName,
		Seats:           in.Seats,
		PaymentKind:     in.PaymentKind,
		NetDays:         in.NetDays,
		PrepayPercent:   in.PrepayPercent,
		Subtotal:        pricing.Subtotal,
		DiscountPercent: in.DiscountPercent,
		Total:           pricing.Total,
		Status:          models.QuotePending,
		AddOns:          addOns,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quote).Error; err != nil {
			return err
		}
		wf := models.Workflow{ID: uuid.NewString(), QuoteID: quote.ID}
		if err := tx.Create(&wf).Error; err != nil {
			return err
		}
		steps, err := initializeSteps(tx, wf.ID, chain, time.Now().UTC())
		if err != nil {
			return err
		}
		quote.Status = DeriveQuoteStatus(quote.Status, steps)
		return tx.Model(&models.Quote{}).Where("id = ?", quote.ID).Update("status", quote.Status).Error
	})
	if err != nil {
		return nil, Pricing{}, err
	}

	s.attachDocument(ctx, &quote, pkg, addOns)
	return &quote, pricing, nil
}

// attachDocument asks the generator for a contract draft and stores it.
// Failures only cost the document, never the quote.
func (s *QuoteService) attachDocument(ctx context.Context, quote *models.Quote, pkg models.Package, addOns []models.AddOn) {
	if s.docs == nil {
		return
	}
	names := make([]string, 0, len(addOns))
	for _, a := range addOns {
		names = append(names, a.Name)
	}
	html, err := s.docs.Generate(ctx, ContractInput{
		CustomerName:  quote.CustomerName,
		PackageName:   pkg.Name,
		Seats:         quote.Seats,
		AddOnNames:    names,
		PaymentKind:   quote.PaymentKind,
		NetDays:       quote.NetDays,
		PrepayPercent: quote.PrepayPercent,
		Total:         quote.Total,
	})
	if err != nil {
		log.Printf("contract generation failed for quote %s: %v", quote.ID, err)
		return
	}
	if err := s.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ?", quote.ID).Update("document_html", html).Error; err != nil {
		log.Printf("storing contract for quote %s: %v", quote.ID, err)
		return
	}
	quote.DocumentHTML = &html
}

// Get fetches one quote with its workflow, package, and add-ons.
func (s *QuoteService) Get(ctx context.Context, id string) (*models.Quote, error) {
	var quote models.Quote
	err := s.db.WithContext(ctx).
		Preload("Package").Preload("AddOns").
		Preload("Workflow.Steps", func(db *gorm.DB) *gorm.DB { return db.Order("step_order asc") }).
		First(&quote, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "quote", Ref: id}
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// List returns a page of quotes, newest first, optionally filtered by status.
func (s *QuoteService) List(ctx context.Context, status models.QuoteStatus, limit, offset int) ([]models.Quote, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := s.db.WithContext(ctx).Model(&models.Quote{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var quotes []models.Quote
	err := q.Preload("Package").Order("created_at desc").
		Limit(limit).Offset(offset).Find(&quotes).Error
	if err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

func validateQuoteInput(in CreateQuoteInput) error {
	v := validation.Violations{}
	validation.Required("customerName", in.CustomerName, v)
	validation.Required("organizationId", in.OrganizationID, v)
	validation.Required("package", in.PackageRef, v)
	validation.MinInt("seats", in.Seats, 1, v)
	validation.RangeFloat("discountPercent", in.DiscountPercent, 0, 100, v)
	validation.Required("paymentKind", string(in.PaymentKind), v)
	validation.OneOf("paymentKind", string(in.PaymentKind),
		[]string{string(models.PaymentNet), string(models.PaymentPrepay), string(models.PaymentBoth)}, v)

	// payment-term coherence
	needNet := in.PaymentKind == models.PaymentNet || in.PaymentKind == models.PaymentBoth
	needPrepay := in.PaymentKind == models.PaymentPrepay || in.PaymentKind == models.PaymentBoth
	if needNet && (in.NetDays == nil || *in.NetDays < 1) {
		v["netDays"] = "required"
	}
	if needPrepay {
		switch {
		case in.PrepayPercent == nil:
			v["prepayPercent"] = "required"
		case *in.PrepayPercent > 100:
			v["prepayPercent"] = "out_of_range"
		default:
			validation.PositiveFloat("prepayPercent", *in.PrepayPercent, v)
		}
	}
	if !needNet && in.NetDays != nil {
		v["netDays"] = "not_allowed"
	}
	if !needPrepay && in.PrepayPercent != nil {
		v["prepayPercent"] = "not_allowed"
	}

	if !v.Empty() {
		return newValidationError(v)
	}
	return nil
}
