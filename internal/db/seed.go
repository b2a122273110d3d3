package db

import (
	"github.com/google/uuid"
	"github.com/mverot/dealdesk/internal/models"
	"gorm.io/gorm"
)

// Seed inserts the baseline catalog and a default organization when absent.
// Idempotent: rows are matched by name.
func Seed(db *gorm.DB) {
	basePackages := []models.Package{
		{Name: "Starter", UnitPrice: 10, Active: true},
		{Name: "Team", UnitPrice: 20, Active: true},
		{Name: "Business", UnitPrice: 45, Active: true},
		{Name: "Enterprise", UnitPrice: 80, Active: true},
	}
	for _, p := range basePackages {
		var existing models.Package
		if err := db.Where("name = ?", p.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			p.ID = uuid.NewString()
			db.Create(&p)
		}
	}
	baseAddOns := []models.AddOn{
		{Name: "Priority Support", Price: 500, Active: true},
		{Name: "SSO", Price: 250, Active: true},
		{Name: "Audit Logs", Price: 150, Active: true},
		{Name: "Sandbox Environment", Price: 300, Active: true},
	}
	for _, a := range baseAddOns {
		var existing models.AddOn
		if err := db.Where("name = ?", a.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			a.ID = uuid.NewString()
			db.Create(&a)
		}
	}
	var org models.Organization
	if err := db.First(&org).Error; err == gorm.ErrRecordNotFound {
		db.Create(&models.Organization{ID: uuid.NewString(), Name: "Default Org"})
	}
}
