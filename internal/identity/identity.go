package identity

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

var (
	// ErrNoCredentials indica requisição sem identificação.
	ErrNoCredentials = errors.New("credenciais ausentes")
	// ErrInvalidCredentials indica identificação presente porém inválida.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
)

// Papéis aceitos nas claims de acesso.
const (
	RoleCitizen = "CITIZEN"
	RoleAdmin   = "ADMIN"
)

// Caller é a identidade já resolvida que os serviços recebem.
// O motor nunca decodifica credenciais: tudo chega por aqui.
type Caller struct {
	UserID    int64
	IsAdmin   bool
	IsCitizen bool
}

// Resolver transforma uma requisição em Caller.
type Resolver interface {
	Resolve(r *http.Request) (Caller, error)
}

// JWTResolver valida o bearer token de acesso.
type JWTResolver struct {
	manager *JWTManager
}

func NewJWTResolver(manager *JWTManager) *JWTResolver {
	return &JWTResolver{manager: manager}
}

func (j *JWTResolver) Resolve(r *http.Request) (Caller, error) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Caller{}, ErrNoCredentials
	}

	claims, err := j.manager.ParseAndValidate(parts[1])
	if err != nil {
		return Caller{}, ErrInvalidCredentials
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Caller{}, ErrInvalidCredentials
	}

	caller := Caller{UserID: userID}
	for _, role := range claims.Roles {
		switch strings.ToUpper(strings.TrimSpace(role)) {
		case RoleAdmin:
			caller.IsAdmin = true
		case RoleCitizen:
			caller.IsCitizen = true
		}
	}
	return caller, nil
}

// HeaderResolver simula identidade via cabeçalhos. Uso exclusivo de
// desenvolvimento e testes; nunca habilitar em produção.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (Caller, error) {
	idStr := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if idStr == "" {
		return Caller{}, ErrNoCredentials
	}
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || userID <= 0 {
		return Caller{}, ErrInvalidCredentials
	}
	return Caller{
		UserID:    userID,
		IsAdmin:   r.Header.Get("X-Is-Admin") == "1",
		IsCitizen: r.Header.Get("X-Is-Citizen") == "1",
	}, nil
}
