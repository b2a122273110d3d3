package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mverot/dealdesk/httpx"
	"github.com/mverot/dealdesk/internal/engine"
	"github.com/mverot/dealdesk/internal/models"
)

type SimilarHandler struct {
	Similar *engine.SimilarityService
}

func NewSimilarHandler(similar *engine.SimilarityService) *SimilarHandler {
	return &SimilarHandler{Similar: similar}
}

type similarResult struct {
	quoteView
	Similarity struct {
		Score   int      `json:"score"`
		Reasons []string `json:"reasons"`
	} `json:"similarity"`
}

// Find: GET /quotes/similar?packageId=&packageName=&seats=&discount=&addOns=&paymentKind=
func (h *SimilarHandler) Find(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	query := engine.SimilarityQuery{
		PackageID:   strings.TrimSpace(qs.Get("packageId")),
		PackageName: strings.TrimSpace(qs.Get("packageName")),
		PaymentKind: models.PaymentKind(strings.ToUpper(strings.TrimSpace(qs.Get("paymentKind")))),
	}
	if v := qs.Get("seats"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_error", map[string]string{"seats": "not_a_number"})
			return
		}
		query.Seats = &n
	}
	if v := qs.Get("discount"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_error", map[string]string{"discount": "not_a_number"})
			return
		}
		query.DiscountPercent = &d
	}
	if v := strings.TrimSpace(qs.Get("addOns")); v != "" {
		for _, ref := range strings.Split(v, ",") {
			if ref = strings.TrimSpace(ref); ref != "" {
				query.AddOnRefs = append(query.AddOnRefs, ref)
			}
		}
	}

	matches, err := h.Similar.FindSimilar(r.Context(), query)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	results := make([]similarResult, 0, len(matches))
	for i := range matches {
		res := similarResult{quoteView: toQuoteView(&matches[i].Quote)}
		res.Similarity.Score = matches[i].Score
		res.Similarity.Reasons = matches[i].Reasons
		results = append(results, res)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": results})
}
