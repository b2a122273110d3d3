package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mverot/dealdesk/httpx"
	"github.com/mverot/dealdesk/internal/engine"
	"github.com/mverot/dealdesk/internal/models"
)

type QuoteHandler struct {
	Quotes *engine.QuoteService
}

func NewQuoteHandler(quotes *engine.QuoteService) *QuoteHandler {
	return &QuoteHandler{Quotes: quotes}
}

type stepView struct {
	StepOrder    int               `json:"stepOrder"`
	Persona      models.Persona    `json:"persona"`
	ApproverName string            `json:"approverName,omitempty"`
	Status       models.StepStatus `json:"status"`
	ApprovedAt   *time.Time        `json:"approvedAt,omitempty"`
	PendingSince *time.Time        `json:"pendingSince,omitempty"`
}

type quoteView struct {
	ID              string             `json:"id"`
	OrganizationID  string             `json:"organizationId"`
	CustomerName    string             `json:"customerName"`
	PackageID       string             `json:"packageId"`
	PackageName     string             `json:"packageName,omitempty"`
	Seats           int                `json:"seats"`
	PaymentKind     models.PaymentKind `json:"paymentKind"`
	NetDays         *int               `json:"netDays,omitempty"`
	PrepayPercent   *float64           `json:"prepayPercent,omitempty"`
	Subtotal        float64            `json:"subtotal"`
	DiscountPercent float64            `json:"discountPercent"`
	Total           float64            `json:"total"`
	Status          models.QuoteStatus `json:"status"`
	AddOns          []string           `json:"addOns,omitempty"`
	DocumentHTML    *string            `json:"documentHtml"`
	Steps           []stepView         `json:"steps,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

func toQuoteView(q *models.Quote) quoteView {
	view := quoteView{
		ID:              q.ID,
		OrganizationID:  q.OrganizationID,
		CustomerName:    q.CustomerName,
		PackageID:       q.PackageID,
		PackageName:     q.Package.Name,
		Seats:           q.Seats,
		PaymentKind:     q.PaymentKind,
		NetDays:         q.NetDays,
		PrepayPercent:   q.PrepayPercent,
		Subtotal:        q.Subtotal,
		DiscountPercent: q.DiscountPercent,
		Total:           q.Total,
		Status:          q.Status,
		DocumentHTML:    q.DocumentHTML,
		CreatedAt:       q.CreatedAt,
	}
	for _, a := range q.AddOns {
		view.AddOns = append(view.AddOns, a.Name)
	}
	if q.Workflow != nil {
		for _, s := range q.Workflow.Steps {
			view.Steps = append(view.Steps, stepView{
				StepOrder:    s.StepOrder,
				Persona:      s.Persona,
				ApproverName: s.ApproverName,
				Status:       s.Status,
				ApprovedAt:   s.ApprovedAt,
				PendingSince: s.PendingSince,
			})
		}
	}
	return view
}

// Create: POST /quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in engine.CreateQuoteInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	quote, pricing, err := h.Quotes.Create(r.Context(), in)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":      quote.ID,
		"status":  quote.Status,
		"pricing": pricing,
	})
}

// Get: GET /quotes/{id}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	quote, err := h.Quotes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toQuoteView(quote))
}

// List: GET /quotes?status=&limit=&page=
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			page = n
		}
	}
	offset := (page - 1) * limit
	status := models.QuoteStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	quotes, total, err := h.Quotes.List(r.Context(), status, limit, offset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	items := make([]quoteView, 0, len(quotes))
	for i := range quotes {
		items = append(items, toQuoteView(&quotes[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": items, "total": total, "limit": limit, "page": page,
	})
}
