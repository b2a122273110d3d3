package engine

import "github.com/mverot/dealdesk/internal/models"

// BuildChain computes the ordered approval personas for a deal from its
// discount tier and payment terms. Deterministic: same inputs, same chain.
//
// The submitter (AE) always opens the chain and LEGAL always closes it.
// Exactly one discount-tier persona is added; finance additionally signs off
// bespoke payment terms (split payment, or net terms of 60 days and longer).
func BuildChain(discountPercent float64, kind models.PaymentKind, netDays int) []models.Persona {
	chain := []models.Persona{models.PersonaAE}

	switch {
	case discountPercent > 40:
		chain = append(chain, models.PersonaFinance)
	case discountPercent > 15:
		chain = append(chain, models.PersonaCRO)
	case discountPercent > 0:
		chain = append(chain, models.PersonaDealDesk)
	}

	if bespoke(kind, netDays) && !contains(chain, models.PersonaFinance) {
		chain = append(chain, models.PersonaFinance)
	}

	return append(chain, models.PersonaLegal)
}

func bespoke(kind models.PaymentKind, netDays int) bool {
	return kind == models.PaymentBoth || (kind == models.PaymentNet && netDays >= 60)
}

func contains(chain []models.Persona, p models.Persona) bool {
	for _, c := range chain {
		if c == p {
			return true
		}
	}
	return false
}
