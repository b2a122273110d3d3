package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mverot/dealdesk/internal/models"
)

type ctxKey string

const (
	ctxRole  ctxKey = "actor_role"
	ctxActor ctxKey = "actor_name"
)

// Actor extracts the acting identity resolved upstream (gateway headers) and
// stores it in context. The role claim, when present, overrides any role a
// request body carries: approvals must not trust a client-picked role.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if role := models.Persona(strings.ToUpper(strings.TrimSpace(r.Header.Get("X-Actor-Role")))); models.ValidPersona(role) {
			ctx = context.WithValue(ctx, ctxRole, role)
		}
		if name := strings.TrimSpace(r.Header.Get("X-Actor-Name")); name != "" {
			ctx = context.WithValue(ctx, ctxActor, name)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RoleFrom returns the resolved role claim, if any.
func RoleFrom(ctx context.Context) (models.Persona, bool) {
	v, ok := ctx.Value(ctxRole).(models.Persona)
	return v, ok
}

// ActorFrom returns the resolved actor display name, if any.
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxActor).(string); ok {
		return v
	}
	return ""
}
