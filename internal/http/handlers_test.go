package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/participa/internal/budget"
	"github.com/gestaozabele/participa/internal/http/middleware"
	"github.com/gestaozabele/participa/internal/identity"
	"github.com/gestaozabele/participa/internal/initiative"
	"github.com/gestaozabele/participa/internal/storage"
)

type stubInitiativeStore struct {
	detail    *initiative.Detail
	insertID  int64
	signErr   error
	insertIn  *initiative.CreateInput
	followErr error
}

func (s *stubInitiativeStore) Insert(ctx context.Context, input initiative.CreateInput) (int64, error) {
	s.insertIn = &input
	return s.insertID, nil
}

func (s *stubInitiativeStore) GetDetail(ctx context.Context, id int64) (*initiative.Detail, error) {
	if s.detail == nil {
		return nil, initiative.ErrNotFound
	}
	return s.detail, nil
}

func (s *stubInitiativeStore) List(ctx context.Context, f initiative.Filter) ([]initiative.ListItem, int64, error) {
	return nil, 0, nil
}

func (s *stubInitiativeStore) UpdateExpiration(ctx context.Context, id int64, newDate time.Time) error {
	return nil
}

func (s *stubInitiativeStore) Sign(ctx context.Context, userID, initiativeID int64) error {
	return s.signErr
}

func (s *stubInitiativeStore) Follow(ctx context.Context, userID, initiativeID int64) error {
	return s.followErr
}

func (s *stubInitiativeStore) Unfollow(ctx context.Context, userID, initiativeID int64) error {
	return nil
}

func (s *stubInitiativeStore) CreateReply(ctx context.Context, input initiative.ReplyCreate) (*initiative.Reply, []initiative.Recipient, error) {
	return &initiative.Reply{ID: 1}, nil, nil
}

func (s *stubInitiativeStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type stubBudgetStore struct {
	voteErr error
	byID    *budget.Budget
}

func (s *stubBudgetStore) Create(ctx context.Context, input budget.CreateInput) (*budget.Budget, error) {
	return &budget.Budget{ID: 1}, nil
}

func (s *stubBudgetStore) GetActive(ctx context.Context) (*budget.Budget, error) {
	return nil, budget.ErrNotFound
}

func (s *stubBudgetStore) GetByID(ctx context.Context, id int64) (*budget.Budget, error) {
	if s.byID == nil {
		return nil, budget.ErrNotFound
	}
	return s.byID, nil
}

func (s *stubBudgetStore) CallerVote(ctx context.Context, budgetID, userID int64) (*int, error) {
	return nil, nil
}

func (s *stubBudgetStore) Vote(ctx context.Context, userID, budgetID int64, position int) error {
	return s.voteErr
}

func (s *stubBudgetStore) ListAll(ctx context.Context, page, pageSize int) ([]budget.Budget, int64, error) {
	return nil, 0, nil
}

type stubStorage struct {
	saved []string
}

func (s *stubStorage) Save(ctx context.Context, originalName, contentType string, body []byte) (*storage.Stored, error) {
	s.saved = append(s.saved, originalName)
	return &storage.Stored{
		FileName: originalName,
		FilePath: "/files/" + originalName,
		FileType: contentType,
	}, nil
}

func newTestHandler(initStore initiative.Store, budgetStore budget.Store, store storage.Storage) *Handler {
	return &Handler{
		initiatives: initiative.NewService(initStore, nil, zerolog.Nop()),
		budgets:     budget.NewService(budgetStore, nil),
		storage:     store,
		maxUpload:   1 << 20,
	}
}

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/initiatives/{id}", h.GetInitiative)
	r.Post("/initiatives", h.CreateInitiative)
	r.Post("/initiatives/{id}/signatures", h.SignInitiative)
	r.Put("/initiatives/{id}/follow", h.FollowInitiative)
	r.Post("/budgets/{id}/votes", h.VoteBudget)
	return r
}

func asCitizen(req *http.Request) *http.Request {
	ctx := middleware.WithCaller(req.Context(), identity.Caller{UserID: 7, IsCitizen: true})
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("resposta não é o envelope esperado: %v", err)
	}
	if env.Error == nil {
		t.Fatalf("envelope sem erro: %s", rec.Body.String())
	}
	return *env.Error
}

func TestGetInitiativeInvalidID(t *testing.T) {
	router := testRouter(newTestHandler(&stubInitiativeStore{}, &stubBudgetStore{}, &stubStorage{}))

	req := httptest.NewRequest(http.MethodGet, "/initiatives/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("esperado 400, veio %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != "VALIDATION" {
		t.Errorf("código inesperado: %s", body.Code)
	}
}

func TestGetInitiativeNotFound(t *testing.T) {
	router := testRouter(newTestHandler(&stubInitiativeStore{}, &stubBudgetStore{}, &stubStorage{}))

	req := httptest.NewRequest(http.MethodGet, "/initiatives/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("esperado 404, veio %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != "NOT_FOUND" {
		t.Errorf("código inesperado: %s", body.Code)
	}
}

func TestSignInitiativeConflict(t *testing.T) {
	store := &stubInitiativeStore{signErr: initiative.ErrAlreadySigned}
	router := testRouter(newTestHandler(store, &stubBudgetStore{}, &stubStorage{}))

	req := asCitizen(httptest.NewRequest(http.MethodPost, "/initiatives/3/signatures", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("esperado 409, veio %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != "CONFLICT" {
		t.Errorf("código inesperado: %s", body.Code)
	}
}

func TestSignInitiativeNotOpenNamesStatus(t *testing.T) {
	store := &stubInitiativeStore{signErr: &initiative.NotOpenError{Current: initiative.StatusExpired}}
	router := testRouter(newTestHandler(store, &stubBudgetStore{}, &stubStorage{}))

	req := asCitizen(httptest.NewRequest(http.MethodPost, "/initiatives/3/signatures", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("esperado 403, veio %d", rec.Code)
	}
	body := decodeError(t, rec)
	if !strings.Contains(body.Message, string(initiative.StatusExpired)) {
		t.Errorf("mensagem deveria citar o status atual: %s", body.Message)
	}
}

func TestSignInitiativeWithoutIdentity(t *testing.T) {
	router := testRouter(newTestHandler(&stubInitiativeStore{}, &stubBudgetStore{}, &stubStorage{}))

	req := httptest.NewRequest(http.MethodPost, "/initiatives/3/signatures", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("esperado 401, veio %d", rec.Code)
	}
}

func TestVoteBudgetInvalidPosition(t *testing.T) {
	store := &stubBudgetStore{voteErr: &budget.InvalidPositionError{Position: 9}}
	router := testRouter(newTestHandler(&stubInitiativeStore{}, store, &stubStorage{}))

	payload := bytes.NewBufferString(`{"position": 9}`)
	req := asCitizen(httptest.NewRequest(http.MethodPost, "/budgets/1/votes", payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("esperado 400, veio %d", rec.Code)
	}
	body := decodeError(t, rec)
	if !strings.Contains(body.Message, "9") {
		t.Errorf("mensagem deveria citar a posição inválida: %s", body.Message)
	}
}

func TestCreateInitiativeMultipart(t *testing.T) {
	store := &stubInitiativeStore{
		insertID: 11,
		detail:   &initiative.Detail{Initiative: initiative.Initiative{ID: 11, Status: initiative.StatusInProgress}},
	}
	files := &stubStorage{}
	router := testRouter(newTestHandler(store, &stubBudgetStore{}, files))

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("title", "Ciclovia na orla")
	_ = form.WriteField("description", "Ligação do centro à orla")
	_ = form.WriteField("place", "Orla Central")
	_ = form.WriteField("category_id", "2")
	part, _ := form.CreateFormFile("attachments", "mapa.png")
	_, _ = part.Write([]byte("png-bytes"))
	_ = form.Close()

	req := asCitizen(httptest.NewRequest(http.MethodPost, "/initiatives", &buf))
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("esperado 201, veio %d: %s", rec.Code, rec.Body.String())
	}
	if len(files.saved) != 1 || files.saved[0] != "mapa.png" {
		t.Errorf("upload não passou pelo storage: %v", files.saved)
	}
	if store.insertIn == nil || len(store.insertIn.Attachments) != 1 {
		t.Fatalf("anexo não chegou ao repositório: %+v", store.insertIn)
	}
	if store.insertIn.Attachments[0].FilePath != "/files/mapa.png" {
		t.Errorf("tupla do anexo inesperada: %+v", store.insertIn.Attachments[0])
	}
}

func TestFollowInitiativeConflict(t *testing.T) {
	store := &stubInitiativeStore{followErr: initiative.ErrAlreadyFollowing}
	router := testRouter(testHandlerWith(store))

	req := asCitizen(httptest.NewRequest(http.MethodPut, "/initiatives/3/follow", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("esperado 409, veio %d", rec.Code)
	}
}

func testHandlerWith(store initiative.Store) *Handler {
	return newTestHandler(store, &stubBudgetStore{}, &stubStorage{})
}
