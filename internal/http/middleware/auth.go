package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gestaozabele/participa/internal/identity"
)

type contextKey string

const contextKeyCaller contextKey = "caller"

// Auth resolve a identidade do chamador e a injeta no contexto.
// Checagens de papel ficam nos serviços; aqui só exigimos identidade.
func Auth(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := resolver.Resolve(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyCaller, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth injeta a identidade quando presente, sem exigi-la.
func OptionalAuth(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if caller, err := resolver.Resolve(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), contextKeyCaller, caller))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CallerFrom recupera a identidade resolvida do contexto.
func CallerFrom(ctx context.Context) (identity.Caller, bool) {
	caller, ok := ctx.Value(contextKeyCaller).(identity.Caller)
	return caller, ok
}

// WithCaller injeta identidade diretamente; usado em testes.
func WithCaller(ctx context.Context, caller identity.Caller) context.Context {
	return context.WithValue(ctx, contextKeyCaller, caller)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
