package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/mverot/dealdesk/httpx"
	"github.com/mverot/dealdesk/internal/engine"
)

// writeEngineError maps the engine error taxonomy onto HTTP. Anything not in
// the taxonomy is an internal error and gets logged, not leaked.
func writeEngineError(w http.ResponseWriter, err error) {
	var (
		validationErr *engine.ValidationError
		resolutionErr *engine.ResolutionError
		notFoundErr   *engine.NotFoundError
		personaErr    *engine.PersonaMismatchError
		editErr       *engine.InvalidEditError
		externalErr   *engine.ExternalServiceError
	)
	switch {
	case errors.As(err, &validationErr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_error", validationErr.Violations)
	case errors.As(err, &resolutionErr):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "resolution_error",
			map[string]string{"kind": resolutionErr.Kind, "ref": resolutionErr.Ref})
	case errors.As(err, &notFoundErr):
		httpx.JSONError(w, http.StatusNotFound, "not_found", notFoundErr.Error())
	case errors.As(err, &personaErr):
		httpx.JSONError(w, http.StatusConflict, "persona_mismatch",
			map[string]string{"required": string(personaErr.Want), "actual": string(personaErr.Got)})
	case errors.As(err, &editErr):
		httpx.JSONError(w, http.StatusConflict, "invalid_edit", editErr.Reason)
	case errors.As(err, &externalErr):
		httpx.JSONError(w, http.StatusBadGateway, "upstream_unavailable", externalErr.Service)
	default:
		log.Printf("internal error: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
