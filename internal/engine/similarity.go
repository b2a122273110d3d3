package engine

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mverot/dealdesk/internal/models"
	"github.com/mverot/dealdesk/validation"
	"gorm.io/gorm"
)

const (
	candidateWindowDays = 365
	candidateCap        = 200
	recentWindowDays    = 90
	maxAddOnPoints      = 3
	maxResults          = 10
)

// SimilarityQuery is a partially specified deal. At least one field must be
// set for ranking to mean anything.
type SimilarityQuery struct {
	PackageID       string
	PackageName     string
	Seats           *int
	DiscountPercent *float64
	AddOnRefs       []string // ids or name fragments
	PaymentKind     models.PaymentKind
}

func (q SimilarityQuery) empty() bool {
	return q.PackageID == "" && q.PackageName == "" && q.Seats == nil &&
		q.DiscountPercent == nil && len(q.AddOnRefs) == 0 && q.PaymentKind == ""
}

// Match is one ranked historical deal. Reasons name the scoring rules that
// fired and are part of the contract, not logging.
type Match struct {
	Quote   models.Quote `json:"quote"`
	Score   int          `json:"score"`
	Reasons []string     `json:"reasons"`
}

// SimilarityService fetches the candidate window and ranks it.
type SimilarityService struct {
	db *gorm.DB
}

func NewSimilarityService(db *gorm.DB) *SimilarityService { return &SimilarityService{db: db} }

// FindSimilar returns the top ranked historical deals resembling the query.
// Candidates are Approved or Sold quotes from the trailing year, newest
// first, capped before scoring.
func (s *SimilarityService) FindSimilar(ctx context.Context, q SimilarityQuery) ([]Match, error) {
	if q.empty() {
		return nil, newValidationError(validation.Violations{"query": "required"})
	}
	now := time.Now().UTC()
	var candidates []models.Quote
	err := s.db.WithContext(ctx).
		Preload("Package").Preload("AddOns").
		Where("status IN ?", []models.QuoteStatus{models.QuoteApproved, models.QuoteSold}).
		Where("created_at >= ?", now.AddDate(0, 0, -candidateWindowDays)).
		Order("created_at desc").
		Limit(candidateCap).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	return RankSimilar(q, candidates, now), nil
}

// RankSimilar scores every candidate against the query with the additive rule
// table, drops zero scores, and returns the top matches ordered by score then
// recency. Pure: same inputs and clock always rank identically.
func RankSimilar(q SimilarityQuery, candidates []models.Quote, now time.Time) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score, reasons := scoreCandidate(q, c, now)
		if score == 0 {
			continue
		}
		matches = append(matches, Match{Quote: c, Score: score, Reasons: reasons})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Quote.CreatedAt.After(matches[j].Quote.CreatedAt)
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

func scoreCandidate(q SimilarityQuery, c models.Quote, now time.Time) (int, []string) {
	score := 0
	var reasons []string
	hit := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	// Package: the id path wins outright; the name path only applies when the
	// query carries no id at all.
	if q.PackageID != "" {
		if c.PackageID == q.PackageID {
			hit(4, "same packageId")
		}
	} else if q.PackageName != "" {
		name := strings.ToLower(c.Package.Name)
		query := strings.ToLower(q.PackageName)
		switch {
		case name == query:
			hit(3, "same package name")
		case strings.Contains(name, query):
			hit(2, "similar package name")
		}
	}

	if q.Seats != nil {
		switch diff := abs(c.Seats - *q.Seats); {
		case diff == 0:
			hit(3, "same seat count")
		case diff <= 10:
			hit(2, "close seat count")
		case diff <= 20:
			hit(1, "similar seat count")
		}
	}

	if q.DiscountPercent != nil {
		diff := math.Abs(c.DiscountPercent - *q.DiscountPercent)
		tolerance := math.Max(1, math.Round(*q.DiscountPercent*0.10))
		switch {
		case diff < 1e-9:
			hit(2, "exact discount")
		case diff <= tolerance:
			hit(1, "close discount")
		}
	}

	if overlap := addOnOverlap(q.AddOnRefs, c.AddOns); overlap > 0 {
		if overlap > maxAddOnPoints {
			overlap = maxAddOnPoints
		}
		hit(overlap, "shared add-ons")
	}

	if q.PaymentKind != "" && c.PaymentKind == q.PaymentKind {
		hit(1, "same payment terms")
	}

	if now.Sub(c.CreatedAt) <= recentWindowDays*24*time.Hour {
		hit(1, "recent")
	}

	return score, reasons
}

// addOnOverlap counts candidate add-ons matched by id or name fragment. Each
// candidate add-on counts at most once.
func addOnOverlap(refs []string, addOns []models.AddOn) int {
	count := 0
	for _, a := range addOns {
		name := strings.ToLower(a.Name)
		for _, ref := range refs {
			if ref == "" {
				continue
			}
			if a.ID == ref || strings.Contains(name, strings.ToLower(ref)) {
				count++
				break
			}
		}
	}
	return count
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
