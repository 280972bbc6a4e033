package identity

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("um-segredo-suficientemente-grande-123", 15*time.Minute)
	resolver := NewJWTResolver(manager)

	token, jti, err := manager.GenerateAccessToken(7, []string{RoleAdmin, RoleCitizen})
	if err != nil {
		t.Fatalf("erro ao gerar token: %v", err)
	}
	if jti == "" {
		t.Error("jti vazio")
	}

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	caller, err := resolver.Resolve(req)
	if err != nil {
		t.Fatalf("erro ao resolver: %v", err)
	}
	if caller.UserID != 7 || !caller.IsAdmin || !caller.IsCitizen {
		t.Errorf("identidade inesperada: %+v", caller)
	}
}

func TestJWTResolverRejections(t *testing.T) {
	manager := NewJWTManager("um-segredo-suficientemente-grande-123", 15*time.Minute)
	resolver := NewJWTResolver(manager)

	t.Run("sem header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		if _, err := resolver.Resolve(req); !errors.Is(err, ErrNoCredentials) {
			t.Fatalf("esperado ErrNoCredentials, veio %v", err)
		}
	})

	t.Run("esquema errado", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Basic abc")
		if _, err := resolver.Resolve(req); !errors.Is(err, ErrNoCredentials) {
			t.Fatalf("esperado ErrNoCredentials, veio %v", err)
		}
	})

	t.Run("token adulterado", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		if _, err := resolver.Resolve(req); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("esperado ErrInvalidCredentials, veio %v", err)
		}
	})

	t.Run("token expirado", func(t *testing.T) {
		expired := NewJWTManager("um-segredo-suficientemente-grande-123", -time.Minute)
		token, _, err := expired.GenerateAccessToken(7, []string{RoleCitizen})
		if err != nil {
			t.Fatalf("erro ao gerar token: %v", err)
		}

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if _, err := resolver.Resolve(req); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("esperado ErrInvalidCredentials, veio %v", err)
		}
	})

	t.Run("segredo diferente", func(t *testing.T) {
		other := NewJWTManager("outro-segredo-igualmente-grande-4567", 15*time.Minute)
		token, _, err := other.GenerateAccessToken(7, []string{RoleCitizen})
		if err != nil {
			t.Fatalf("erro ao gerar token: %v", err)
		}

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if _, err := resolver.Resolve(req); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("esperado ErrInvalidCredentials, veio %v", err)
		}
	})
}

func TestHeaderResolver(t *testing.T) {
	resolver := HeaderResolver{}

	req := httptest.NewRequest("GET", "/", nil)
	if _, err := resolver.Resolve(req); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("esperado ErrNoCredentials, veio %v", err)
	}

	req.Header.Set("X-User-Id", "4")
	req.Header.Set("X-Is-Citizen", "1")

	caller, err := resolver.Resolve(req)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if caller.UserID != 4 || !caller.IsCitizen || caller.IsAdmin {
		t.Errorf("identidade inesperada: %+v", caller)
	}
}
