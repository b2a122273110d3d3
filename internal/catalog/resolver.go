package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/mverot/dealdesk/internal/engine"
	"github.com/mverot/dealdesk/internal/models"
	"gorm.io/gorm"
)

// Store resolves catalog references against the packages and add-ons tables.
// Lookup order: exact id, exact name (case-insensitive), then substring
// match; ambiguous substring matches resolve to the first by name.
type Store struct {
	db *gorm.DB
}

var _ engine.CatalogResolver = (*Store)(nil)

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) ResolvePackage(ctx context.Context, ref string) (models.Package, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Package{}, &engine.ResolutionError{Kind: "package", Ref: ref}
	}
	var pkg models.Package
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Where("id = ? OR lower(name) = ?", ref, strings.ToLower(ref)).
		First(&pkg).Error
	if err == nil {
		return pkg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Package{}, &engine.ExternalServiceError{Service: "catalog", Err: err}
	}
	err = s.db.WithContext(ctx).
		Where("active = ?", true).
		Where("lower(name) LIKE ?", "%"+strings.ToLower(ref)+"%").
		Order("name asc").
		First(&pkg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Package{}, &engine.ResolutionError{Kind: "package", Ref: ref}
	}
	if err != nil {
		return models.Package{}, &engine.ExternalServiceError{Service: "catalog", Err: err}
	}
	return pkg, nil
}

func (s *Store) ResolveAddOns(ctx context.Context, refs []string) ([]models.AddOn, error) {
	addOns := make([]models.AddOn, 0, len(refs))
	seen := map[string]bool{}
	for _, ref := range refs {
		a, err := s.resolveAddOn(ctx, strings.TrimSpace(ref))
		if err != nil {
			return nil, err
		}
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		addOns = append(addOns, a)
	}
	return addOns, nil
}

func (s *Store) resolveAddOn(ctx context.Context, ref string) (models.AddOn, error) {
	if ref == "" {
		return models.AddOn{}, &engine.ResolutionError{Kind: "add-on", Ref: ref}
	}
	var a models.AddOn
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Where("id = ? OR lower(name) = ?", ref, strings.ToLower(ref)).
		First(&a).Error
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AddOn{}, &engine.ExternalServiceError{Service: "catalog", Err: err}
	}
	err = s.db.WithContext(ctx).
		Where("active = ?", true).
		Where("lower(name) LIKE ?", "%"+strings.ToLower(ref)+"%").
		Order("name asc").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AddOn{}, &engine.ResolutionError{Kind: "add-on", Ref: ref}
	}
	if err != nil {
		return models.AddOn{}, &engine.ExternalServiceError{Service: "catalog", Err: err}
	}
	return a, nil
}
