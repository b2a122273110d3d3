package server

import (
	"log"
	"net/http"
	"time"

	"github.com/mverot/dealdesk/httpx"
	"github.com/mverot/dealdesk/internal/catalog"
	"github.com/mverot/dealdesk/internal/engine"
	"github.com/mverot/dealdesk/internal/handlers"
	"github.com/mverot/dealdesk/internal/middleware"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
// docs may be nil; quotes are then created without contract documents.
func New(db *gorm.DB, docs engine.DocumentGenerator) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Lightweight DB check; error details stay out of the body.
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	quotes := engine.NewQuoteService(db, catalog.NewStore(db), docs)
	workflows := engine.NewWorkflowService(db)
	similar := engine.NewSimilarityService(db)

	qh := handlers.NewQuoteHandler(quotes)
	mux.HandleFunc("POST /quotes", qh.Create)
	mux.HandleFunc("GET /quotes", qh.List)
	mux.HandleFunc("GET /quotes/{id}", qh.Get)

	sh := handlers.NewSimilarHandler(similar)
	mux.HandleFunc("GET /quotes/similar", sh.Find)

	wh := handlers.NewWorkflowHandler(workflows)
	mux.HandleFunc("POST /quotes/{id}/approve", wh.Approve)
	mux.HandleFunc("POST /quotes/{id}/reject", wh.Reject)
	mux.HandleFunc("PUT /quotes/{id}/workflow", wh.Replace)
	mux.HandleFunc("POST /quotes/{id}/sold", wh.MarkSold)

	return middleware.Actor(withRecover(withLogging(mux)))
}

// Simple middleware logging & recovery kept private to this package to avoid duplication.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
