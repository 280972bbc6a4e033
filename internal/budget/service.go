package budget

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/participa/internal/identity"
)

const (
	minOptions      = 2
	defaultPage     = 1
	defaultPageSize = 10

	activeCacheKey = "budget:active"
	activeCacheTTL = 60 * time.Second
)

// Store é o contrato de persistência do orçamento participativo.
type Store interface {
	Create(ctx context.Context, input CreateInput) (*Budget, error)
	GetActive(ctx context.Context) (*Budget, error)
	GetByID(ctx context.Context, id int64) (*Budget, error)
	CallerVote(ctx context.Context, budgetID, userID int64) (*int, error)
	Vote(ctx context.Context, userID, budgetID int64, position int) error
	ListAll(ctx context.Context, page, pageSize int) ([]Budget, int64, error)
}

// Service reúne as regras do orçamento participativo.
type Service struct {
	store Store
	cache *redis.Client
	now   func() time.Time
}

// NewService cria o serviço; cache pode ser nil.
func NewService(store Store, cache *redis.Client) *Service {
	return &Service{store: store, cache: cache, now: time.Now}
}

// Create valida e grava um novo orçamento. Só pode existir um com prazo
// vigente por vez; a verificação acontece dentro da transação.
func (s *Service) Create(ctx context.Context, caller identity.Caller, title string, expirationDate time.Time, options []string) (*Budget, error) {
	if !caller.IsAdmin {
		return nil, ErrForbidden
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Message: "título obrigatório"}
	}
	if !expirationDate.After(s.now()) {
		return nil, &ValidationError{Message: "prazo deve estar no futuro"}
	}

	cleaned := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return nil, &ValidationError{Message: "opção vazia não é permitida"}
		}
		cleaned = append(cleaned, opt)
	}
	if len(cleaned) < minOptions {
		return nil, &ValidationError{Message: "são necessárias pelo menos duas opções"}
	}

	created, err := s.store.Create(ctx, CreateInput{
		CreatorID:      caller.UserID,
		Title:          title,
		ExpirationDate: expirationDate,
		Options:        cleaned,
	})
	if err != nil {
		return nil, err
	}

	s.invalidateActiveCache(ctx)
	return created, nil
}

// GetActive devolve o orçamento vigente; quando há identidade, anexa a
// posição votada pelo chamador.
func (s *Service) GetActive(ctx context.Context, caller *identity.Caller) (*View, error) {
	b, err := s.cachedActive(ctx)
	if err != nil {
		return nil, err
	}

	view := &View{Budget: *b}
	if caller != nil {
		vote, err := s.store.CallerVote(ctx, b.ID, caller.UserID)
		if err != nil {
			return nil, err
		}
		view.CallerVote = vote
	}
	return view, nil
}

func (s *Service) cachedActive(ctx context.Context) (*Budget, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, activeCacheKey).Bytes(); err == nil {
			var b Budget
			if json.Unmarshal(data, &b) == nil && b.Active(s.now()) {
				return &b, nil
			}
		}
	}

	b, err := s.store.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(b); err == nil {
			_ = s.cache.Set(ctx, activeCacheKey, payload, activeCacheTTL).Err()
		}
	}
	return b, nil
}

func (s *Service) invalidateActiveCache(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, activeCacheKey).Err()
	}
}

// Vote registra o voto único do cidadão e devolve o orçamento com a
// posição votada ecoada.
func (s *Service) Vote(ctx context.Context, caller identity.Caller, budgetID int64, position int) (*View, error) {
	if !caller.IsCitizen {
		return nil, ErrForbidden
	}

	if err := s.store.Vote(ctx, caller.UserID, budgetID, position); err != nil {
		return nil, err
	}

	b, err := s.store.GetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	return &View{Budget: *b, CallerVote: &position}, nil
}

// ListArchive devolve o histórico completo para administradores.
func (s *Service) ListArchive(ctx context.Context, caller identity.Caller, page, pageSize int) (*ArchivePage, error) {
	if !caller.IsAdmin {
		return nil, ErrForbidden
	}

	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	items, total, err := s.store.ListAll(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &ArchivePage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}
