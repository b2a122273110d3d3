package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mverot/dealdesk/internal/models"
	"github.com/mverot/dealdesk/validation"
	"gorm.io/gorm"
)

// WorkflowService owns the step lifecycle and the gating invariant: at most
// one step is Pending at a time, and it is the first step not yet Approved.
// Every mutation recomputes the quote status inside the same transaction, so
// the stored status can never drift from the step list.
type WorkflowService struct {
	db *gorm.DB
}

func NewWorkflowService(db *gorm.DB) *WorkflowService { return &WorkflowService{db: db} }

// StepEdit is one entry of a full-replace workflow edit.
type StepEdit struct {
	Persona      models.Persona `json:"persona"`
	ApproverName string         `json:"approverName,omitempty"`
}

// initializeSteps creates the step rows for a fresh workflow. The first step
// is the submitting AE and is approved immediately; the rest wait behind the
// gate. Must run inside the caller's transaction.
func initializeSteps(tx *gorm.DB, workflowID string, chain []models.Persona, now time.Time) ([]models.WorkflowStep, error) {
	steps := make([]models.WorkflowStep, 0, len(chain))
	for i, persona := range chain {
		step := models.WorkflowStep{
			ID:         uuid.NewString(),
			WorkflowID: workflowID,
			StepOrder:  i + 1,
			Persona:    persona,
			Status:     models.StepWaiting,
		}
		if i == 0 {
			approvedAt := now
			step.Status = models.StepApproved
			step.ApprovedAt = &approvedAt
		}
		steps = append(steps, step)
	}
	gate(steps, now)
	if err := tx.Create(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

// gate applies the gating rule in place. steps must be ordered by StepOrder.
// Idempotent: re-running on an already gated workflow changes nothing.
func gate(steps []models.WorkflowStep, now time.Time) {
	for i := range steps {
		if steps[i].Status == models.StepRejected {
			// frozen: a rejected workflow never progresses
			return
		}
	}
	pendingSeen := false
	for i := range steps {
		step := &steps[i]
		if step.Status == models.StepApproved {
			continue
		}
		if !pendingSeen {
			pendingSeen = true
			if step.Status != models.StepPending {
				step.Status = models.StepPending
				since := now
				step.PendingSince = &since
			}
			continue
		}
		if step.Status != models.StepWaiting || step.PendingSince != nil {
			step.Status = models.StepWaiting
			step.PendingSince = nil
		}
	}
}

// DeriveQuoteStatus is a pure function of the step statuses plus the Sold
// override. Sold is terminal: recomputation never downgrades it.
func DeriveQuoteStatus(current models.QuoteStatus, steps []models.WorkflowStep) models.QuoteStatus {
	if current == models.QuoteSold {
		return models.QuoteSold
	}
	pending := false
	for _, s := range steps {
		switch s.Status {
		case models.StepRejected:
			return models.QuoteRejected
		case models.StepPending:
			pending = true
		}
	}
	if pending {
		return models.QuotePending
	}
	return models.QuoteApproved
}

// ApproveAsRole approves the currently pending step as the given role, then
// regates and recomputes the quote status, all in one transaction. A stale
// caller (nothing pending, or wrong persona) gets a typed error and no
// mutation.
func (s *WorkflowService) ApproveAsRole(ctx context.Context, quoteID string, role models.Persona, approver string) (models.QuoteStatus, error) {
	return s.resolvePending(ctx, quoteID, role, approver, models.StepApproved)
}

// RejectAsRole rejects the currently pending step, freezing the workflow.
func (s *WorkflowService) RejectAsRole(ctx context.Context, quoteID string, role models.Persona, approver string) (models.QuoteStatus, error) {
	return s.resolvePending(ctx, quoteID, role, approver, models.StepRejected)
}

func (s *WorkflowService) resolvePending(ctx context.Context, quoteID string, role models.Persona, approver string, verdict models.StepStatus) (models.QuoteStatus, error) {
	var newStatus models.QuoteStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, steps, err := s.loadForUpdate(tx, quoteID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		var pending *models.WorkflowStep
		for i := range steps {
			if steps[i].Status == models.StepPending {
				pending = &steps[i]
				break
			}
		}
		if pending == nil {
			return &NotFoundError{Resource: "pending step for quote", Ref: quoteID}
		}
		if pending.Persona != role {
			return &PersonaMismatchError{Want: pending.Persona, Got: role}
		}
		if err := claimPending(tx, pending, verdict, approver, now); err != nil {
			return err
		}
		gate(steps, now)
		for i := range steps {
			if steps[i].ID == pending.ID {
				continue
			}
			if err := tx.Save(&steps[i]).Error; err != nil {
				return err
			}
		}
		newStatus = DeriveQuoteStatus(quote.Status, steps)
		return tx.Model(&models.Quote{}).Where("id = ?", quote.ID).Update("status", newStatus).Error
	})
	if err != nil {
		return "", err
	}
	return newStatus, nil
}

// claimPending flips the pending step with an update conditional on its
// status, so of two racing resolutions only one wins. The loser matched zero
// rows; under read committed it would otherwise apply its verdict on top of
// the winner's and both would report success. The loser gets the same error a
// late reader would.
func claimPending(tx *gorm.DB, step *models.WorkflowStep, verdict models.StepStatus, approver string, now time.Time) error {
	updates := map[string]any{"status": verdict, "approved_at": now}
	if approver != "" {
		updates["approver_name"] = approver
	}
	res := tx.Model(&models.WorkflowStep{}).
		Where("id = ? AND status = ?", step.ID, models.StepPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Resource: "pending step", Ref: step.ID}
	}
	step.Status = verdict
	step.ApprovedAt = &now
	if approver != "" {
		step.ApproverName = approver
	}
	return nil
}

// ReplaceSteps swaps the full step list, as used by the workflow editor.
// Steps already approved form an immutable prefix: the new list must repeat
// their personas in order, and they keep their Approved state. Everything
// after the prefix is recreated as Waiting and regated.
func (s *WorkflowService) ReplaceSteps(ctx context.Context, quoteID string, edits []StepEdit) error {
	v := validation.Violations{}
	for _, e := range edits {
		if !models.ValidPersona(e.Persona) {
			v["persona"] = "unknown_value"
		}
	}
	if !v.Empty() {
		return newValidationError(v)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, steps, err := s.loadForUpdate(tx, quoteID)
		if err != nil {
			return err
		}
		approved := 0
		for _, st := range steps {
			if st.Status != models.StepApproved {
				break
			}
			approved++
		}
		if len(edits) == 0 {
			return &InvalidEditError{Reason: "workflow needs at least one step"}
		}
		if len(edits) < approved {
			return &InvalidEditError{Reason: "cannot delete an approved step"}
		}
		for i := 0; i < approved; i++ {
			if edits[i].Persona != steps[i].Persona {
				return &InvalidEditError{Reason: "approved steps must keep their position and persona"}
			}
		}
		if edits[len(edits)-1].Persona != models.PersonaLegal {
			return &InvalidEditError{Reason: "workflow must end with LEGAL"}
		}

		now := time.Now().UTC()
		next := make([]models.WorkflowStep, 0, len(edits))
		next = append(next, steps[:approved]...)
		workflowID := steps[0].WorkflowID
		for i := approved; i < len(edits); i++ {
			next = append(next, models.WorkflowStep{
				ID:           uuid.NewString(),
				WorkflowID:   workflowID,
				StepOrder:    i + 1,
				Persona:      edits[i].Persona,
				ApproverName: edits[i].ApproverName,
				Status:       models.StepWaiting,
			})
		}
		gate(next, now)

		if err := tx.Where("workflow_id = ? AND step_order > ?", workflowID, approved).
			Delete(&models.WorkflowStep{}).Error; err != nil {
			return err
		}
		for i := range next {
			next[i].StepOrder = i + 1
		}
		if fresh := next[approved:]; len(fresh) > 0 {
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
		}
		newStatus := DeriveQuoteStatus(quote.Status, next)
		return tx.Model(&models.Quote{}).Where("id = ?", quote.ID).Update("status", newStatus).Error
	})
}

// MarkSold sets the terminal Sold status. Only a fully approved quote can be
// sold; marking an already sold quote is a no-op.
func (s *WorkflowService) MarkSold(ctx context.Context, quoteID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, _, err := s.loadForUpdate(tx, quoteID)
		if err != nil {
			return err
		}
		if quote.Status == models.QuoteSold {
			return nil
		}
		if quote.Status != models.QuoteApproved {
			return newValidationError(validation.Violations{"status": "must_be_approved"})
		}
		// Conditional on status so a racing reject cannot be overwritten.
		res := tx.Model(&models.Quote{}).
			Where("id = ? AND status = ?", quote.ID, models.QuoteApproved).
			Update("status", models.QuoteSold)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newValidationError(validation.Violations{"status": "must_be_approved"})
		}
		return nil
	})
}

// loadForUpdate fetches the quote and its ordered steps inside tx, creating
// the workflow lazily for quotes that predate workflows.
func (s *WorkflowService) loadForUpdate(tx *gorm.DB, quoteID string) (*models.Quote, []models.WorkflowStep, error) {
	var quote models.Quote
	if err := tx.First(&quote, "id = ?", quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Resource: "quote", Ref: quoteID}
		}
		return nil, nil, err
	}
	var wf models.Workflow
	err := tx.First(&wf, "quote_id = ?", quote.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		wf = models.Workflow{ID: uuid.NewString(), QuoteID: quote.ID}
		if err := tx.Create(&wf).Error; err != nil {
			return nil, nil, err
		}
		netDays := 0
		if quote.NetDays != nil {
			netDays = *quote.NetDays
		}
		chain := BuildChain(quote.DiscountPercent, quote.PaymentKind, netDays)
		steps, err := initializeSteps(tx, wf.ID, chain, time.Now().UTC())
		if err != nil {
			return nil, nil, err
		}
		return &quote, steps, nil
	}
	if err != nil {
		return nil, nil, err
	}
	var steps []models.WorkflowStep
	if err := tx.Where("workflow_id = ?", wf.ID).Order("step_order asc").Find(&steps).Error; err != nil {
		return nil, nil, err
	}
	return &quote, steps, nil
}
