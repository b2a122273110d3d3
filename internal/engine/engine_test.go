package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mverot/dealdesk/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Organization{}, &models.Package{}, &models.AddOn{},
		&models.Quote{}, &models.Workflow{}, &models.WorkflowStep{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// stubCatalog resolves every reference to one fixed package and a flat list
// of add-ons, or fails when broken.
type stubCatalog struct {
	pkg    models.Package
	addOns []models.AddOn
	broken bool
}

func (c *stubCatalog) ResolvePackage(_ context.Context, ref string) (models.Package, error) {
	if c.broken {
		return models.Package{}, &ExternalServiceError{Service: "catalog", Err: errors.New("down")}
	}
	if ref != c.pkg.ID && ref != c.pkg.Name {
		return models.Package{}, &ResolutionError{Kind: "package", Ref: ref}
	}
	return c.pkg, nil
}

func (c *stubCatalog) ResolveAddOns(_ context.Context, refs []string) ([]models.AddOn, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	return c.addOns, nil
}

// stubDocs records invocations; fails when broken.
type stubDocs struct {
	html   string
	broken bool
	calls  int
}

func (d *stubDocs) Generate(context.Context, ContractInput) (string, error) {
	d.calls++
	if d.broken {
		return "", &ExternalServiceError{Service: "document generator", Err: errors.New("down")}
	}
	return d.html, nil
}

func seedEngineFixtures(t *testing.T, db *gorm.DB) (models.Organization, models.Package, []models.AddOn) {
	t.Helper()
	org := models.Organization{ID: uuid.NewString(), Name: "Acme"}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("org: %v", err)
	}
	pkg := models.Package{ID: uuid.NewString(), Name: "Team", UnitPrice: 20, Active: true}
	if err := db.Create(&pkg).Error; err != nil {
		t.Fatalf("package: %v", err)
	}
	addOn := models.AddOn{ID: uuid.NewString(), Name: "Priority Support", Price: 10, Active: true}
	if err := db.Create(&addOn).Error; err != nil {
		t.Fatalf("add-on: %v", err)
	}
	return org, pkg, []models.AddOn{addOn}
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

// createTestQuote runs the full orchestrator with a stub catalog and no
// document generator, returning the persisted quote.
func createTestQuote(t *testing.T, db *gorm.DB, in CreateQuoteInput) *models.Quote {
	t.Helper()
	org, pkg, addOns := seedEngineFixtures(t, db)
	if in.OrganizationID == "" {
		in.OrganizationID = org.ID
	}
	if in.PackageRef == "" {
		in.PackageRef = pkg.Name
	}
	svc := NewQuoteService(db, &stubCatalog{pkg: pkg, addOns: addOns}, nil)
	quote, _, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	return quote
}

func stepStatuses(t *testing.T, db *gorm.DB, quoteID string) []models.StepStatus {
	t.Helper()
	steps := loadSteps(t, db, quoteID)
	out := make([]models.StepStatus, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Status)
	}
	return out
}

func loadSteps(t *testing.T, db *gorm.DB, quoteID string) []models.WorkflowStep {
	t.Helper()
	var wf models.Workflow
	if err := db.First(&wf, "quote_id = ?", quoteID).Error; err != nil {
		t.Fatalf("workflow: %v", err)
	}
	var steps []models.WorkflowStep
	if err := db.Where("workflow_id = ?", wf.ID).Order("step_order asc").Find(&steps).Error; err != nil {
		t.Fatalf("steps: %v", err)
	}
	return steps
}

func quoteStatus(t *testing.T, db *gorm.DB, quoteID string) models.QuoteStatus {
	t.Helper()
	var q models.Quote
	if err := db.First(&q, "id = ?", quoteID).Error; err != nil {
		t.Fatalf("quote: %v", err)
	}
	return q.Status
}

// assertWorkflowInvariants checks the structural invariants that must hold
// after every mutation: contiguous 1..N order, at most one Pending, none
// Pending once anything is Rejected.
func assertWorkflowInvariants(t *testing.T, steps []models.WorkflowStep) {
	t.Helper()
	pending, rejected := 0, 0
	for i, s := range steps {
		if s.StepOrder != i+1 {
			t.Errorf("step %d has order %d, want %d", i, s.StepOrder, i+1)
		}
		switch s.Status {
		case models.StepPending:
			pending++
		case models.StepRejected:
			rejected++
		}
	}
	if pending > 1 {
		t.Errorf("%d steps pending, want at most 1", pending)
	}
	if rejected > 0 && pending > 0 {
		t.Errorf("workflow has both rejected and pending steps")
	}
}
