package models

import "time"

// Approval workflow models
type Persona string

const (
	PersonaAE       Persona = "AE"
	PersonaDealDesk Persona = "DEALDESK"
	PersonaCRO      Persona = "CRO"
	PersonaFinance  Persona = "FINANCE"
	PersonaLegal    Persona = "LEGAL"
)

func ValidPersona(p Persona) bool {
	switch p {
	case PersonaAE, PersonaDealDesk, PersonaCRO, PersonaFinance, PersonaLegal:
		return true
	}
	return false
}

type StepStatus string

const (
	StepWaiting  StepStatus = "Waiting"
	StepPending  StepStatus = "Pending"
	StepApproved StepStatus = "Approved"
	StepRejected StepStatus = "Rejected"
)

// Workflow is 1:1 with a Quote and owns the ordered sign-off steps.
type Workflow struct {
	ID        string         `gorm:"type:uuid;primaryKey"`
	QuoteID   string         `gorm:"type:uuid;not null;uniqueIndex"`
	Steps     []WorkflowStep `gorm:"foreignKey:WorkflowID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type WorkflowStep struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	WorkflowID string `gorm:"type:uuid;not null;index"`
	// StepOrder is 1-based and contiguous within a workflow.
	StepOrder    int     `gorm:"not null"`
	Persona      Persona `gorm:"size:10;not null"`
	ApproverName string
	Status       StepStatus `gorm:"size:10;not null"`
	// ApprovedAt is set when the step reaches Approved or Rejected.
	ApprovedAt *time.Time
	// PendingSince measures wait time; cleared when the step reverts to Waiting.
	PendingSince *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
