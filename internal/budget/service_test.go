package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gestaozabele/participa/internal/identity"
)

type stubStore struct {
	created     *Budget
	createErr   error
	createInput *CreateInput
	active      *Budget
	activeErr   error
	byID        *Budget
	byIDErr     error
	vote        *int
	voteErr     error
	voteCalls   int
	all         []Budget
	allTotal    int64
}

func (s *stubStore) Create(ctx context.Context, input CreateInput) (*Budget, error) {
	s.createInput = &input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.created, nil
}

func (s *stubStore) GetActive(ctx context.Context) (*Budget, error) {
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	return s.active, nil
}

func (s *stubStore) GetByID(ctx context.Context, id int64) (*Budget, error) {
	if s.byIDErr != nil {
		return nil, s.byIDErr
	}
	return s.byID, nil
}

func (s *stubStore) CallerVote(ctx context.Context, budgetID, userID int64) (*int, error) {
	return s.vote, nil
}

func (s *stubStore) Vote(ctx context.Context, userID, budgetID int64, position int) error {
	s.voteCalls++
	return s.voteErr
}

func (s *stubStore) ListAll(ctx context.Context, page, pageSize int) ([]Budget, int64, error) {
	return s.all, s.allTotal, nil
}

var (
	citizen = identity.Caller{UserID: 3, IsCitizen: true}
	admin   = identity.Caller{UserID: 8, IsAdmin: true}
)

func fixedService(store Store, now time.Time) *Service {
	svc := NewService(store, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)

	tests := []struct {
		name       string
		caller     identity.Caller
		title      string
		expiration time.Time
		options    []string
		wantErr    error
		validation bool
	}{
		{"nao admin", citizen, "Orçamento", future, []string{"a", "b"}, ErrForbidden, false},
		{"titulo vazio", admin, "   ", future, []string{"a", "b"}, nil, true},
		{"prazo passado", admin, "Orçamento", now.AddDate(0, 0, -1), []string{"a", "b"}, nil, true},
		{"prazo igual ao agora", admin, "Orçamento", now, []string{"a", "b"}, nil, true},
		{"poucas opcoes", admin, "Orçamento", future, []string{"única"}, nil, true},
		{"opcao vazia", admin, "Orçamento", future, []string{"a", "  "}, nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{created: &Budget{ID: 1}}
			svc := fixedService(store, now)

			_, err := svc.Create(context.Background(), tc.caller, tc.title, tc.expiration, tc.options)

			if tc.validation {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("esperado ValidationError, veio %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("esperado %v, veio %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateTrimsOptions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &stubStore{created: &Budget{ID: 1}}
	svc := fixedService(store, now)

	_, err := svc.Create(context.Background(), admin, " Obras 2026 ", now.AddDate(0, 1, 0), []string{" praça ", " creche "})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if store.createInput.Title != "Obras 2026" {
		t.Errorf("título não aparado: %q", store.createInput.Title)
	}
	if store.createInput.Options[0] != "praça" || store.createInput.Options[1] != "creche" {
		t.Errorf("opções não aparadas: %v", store.createInput.Options)
	}
	if store.createInput.CreatorID != admin.UserID {
		t.Errorf("criador deveria ser o admin: %d", store.createInput.CreatorID)
	}
}

func TestCreatePropagatesActiveExists(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := fixedService(&stubStore{createErr: ErrActiveExists}, now)

	_, err := svc.Create(context.Background(), admin, "Novo", now.AddDate(0, 1, 0), []string{"a", "b"})
	if !errors.Is(err, ErrActiveExists) {
		t.Fatalf("esperado ErrActiveExists, veio %v", err)
	}
}

func TestGetActiveAttachesCallerVote(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	voted := 2
	store := &stubStore{
		active: &Budget{ID: 4, ExpirationDate: now.AddDate(0, 0, 7)},
		vote:   &voted,
	}
	svc := fixedService(store, now)

	view, err := svc.GetActive(context.Background(), &citizen)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if view.CallerVote == nil || *view.CallerVote != 2 {
		t.Errorf("voto do chamador deveria vir anexado: %v", view.CallerVote)
	}
}

func TestGetActiveAnonymousOmitsVote(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &stubStore{active: &Budget{ID: 4, ExpirationDate: now.AddDate(0, 0, 7)}}
	svc := fixedService(store, now)

	view, err := svc.GetActive(context.Background(), nil)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if view.CallerVote != nil {
		t.Errorf("sem identidade não há voto: %v", view.CallerVote)
	}
}

func TestGetActiveNotFound(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := fixedService(&stubStore{activeErr: ErrNotFound}, now)

	if _, err := svc.GetActive(context.Background(), nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperado ErrNotFound, veio %v", err)
	}
}

func TestVoteRequiresCitizen(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, nil)

	if _, err := svc.Vote(context.Background(), admin, 1, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("esperado ErrForbidden, veio %v", err)
	}
	if store.voteCalls != 0 {
		t.Error("voto não deveria chegar ao repositório")
	}
}

func TestVoteEchoesPosition(t *testing.T) {
	store := &stubStore{byID: &Budget{ID: 5}}
	svc := NewService(store, nil)

	view, err := svc.Vote(context.Background(), citizen, 5, 3)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if view.CallerVote == nil || *view.CallerVote != 3 {
		t.Errorf("posição votada deveria ser ecoada: %v", view.CallerVote)
	}
}

func TestVotePropagatesDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"duplicado", ErrAlreadyVoted},
		{"encerrado", ErrClosed},
		{"posicao inexistente", &InvalidPositionError{Position: 9}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&stubStore{voteErr: tc.err}, nil)

			_, err := svc.Vote(context.Background(), citizen, 1, 9)
			if !errors.Is(err, tc.err) {
				var invalid *InvalidPositionError
				if !errors.As(err, &invalid) {
					t.Fatalf("esperado %v, veio %v", tc.err, err)
				}
			}
		})
	}
}

func TestListArchiveRequiresAdmin(t *testing.T) {
	svc := NewService(&stubStore{}, nil)

	if _, err := svc.ListArchive(context.Background(), citizen, 1, 10); !errors.Is(err, ErrForbidden) {
		t.Fatalf("esperado ErrForbidden, veio %v", err)
	}
}

func TestListArchivePagination(t *testing.T) {
	store := &stubStore{allTotal: 11}
	svc := NewService(store, nil)

	page, err := svc.ListArchive(context.Background(), admin, 0, -5)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if page.Page != 1 || page.PageSize != 10 {
		t.Errorf("paginação não normalizada: %d/%d", page.Page, page.PageSize)
	}
	if page.TotalPages != 2 {
		t.Errorf("esperado 2 páginas para 11 itens, veio %d", page.TotalPages)
	}
}

func TestBudgetActiveDayGranularity(t *testing.T) {
	expiration := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	b := Budget{ExpirationDate: expiration}

	if !b.Active(time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)) {
		t.Error("o dia do prazo ainda aceita votos")
	}
	if b.Active(time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)) {
		t.Error("o dia seguinte ao prazo não aceita votos")
	}
}
