package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/upsurge/campaign-lab/internal/middleware"
)

type stubRepo struct {
	campaigns map[int64]*Campaign
	nextID    int64
}

func newStubRepo(cs ...*Campaign) *stubRepo {
	r := &stubRepo{campaigns: make(map[int64]*Campaign), nextID: 100}
	for _, c := range cs {
		r.campaigns[c.ID] = c
	}
	return r
}

func (r *stubRepo) Create(ctx context.Context, c *Campaign) error {
	r.nextID++
	c.ID = r.nextID
	r.campaigns[c.ID] = c
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, id int64) (*Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubRepo) ListByUser(ctx context.Context, userID int64) ([]*Campaign, error) {
	var out []*Campaign
	for _, c := range r.campaigns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubRepo) ListActive(ctx context.Context) ([]*Campaign, error) {
	var out []*Campaign
	for _, c := range r.campaigns {
		if c.IsActive() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubRepo) RecordGeneration(ctx context.Context, id int64, at time.Time) error {
	c, ok := r.campaigns[id]
	if !ok {
		return ErrCampaignNotFound
	}
	RecordGeneration(c, at)
	return nil
}

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), 7)))
		})
	})
	r.Post("/campaigns", h.Create)
	r.Get("/campaigns", h.List)
	r.Route("/campaigns/{campaignID}", h.CampaignRoutes)
	return r
}

func TestCreateCampaign(t *testing.T) {
	repo := newStubRepo()
	router := newTestRouter(NewService(repo))

	body := `{"name":"Spring Launch","goal":"Drive sign-ups","target_audience":"Founders"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.campaigns) != 1 {
		t.Fatalf("expected 1 stored campaign, got %d", len(repo.campaigns))
	}
	for _, c := range repo.campaigns {
		if c.UserID != 7 || c.Status != StatusActive || !c.TargetAudience.Valid {
			t.Fatalf("unexpected stored campaign %+v", c)
		}
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	router := newTestRouter(NewService(newStubRepo()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(`{"name":""}`)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	router := newTestRouter(NewService(newStubRepo()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns/42", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRateLimitEndpointReturnsDenialAsBody(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo(&Campaign{
		ID:                     5,
		Status:                 StatusActive,
		LastVariantGeneratedAt: sql.NullTime{Time: now.Add(-2 * time.Hour), Valid: true},
		VariantGenerationCount: 1,
	})
	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns/5/rate-limit", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Data RateLimitStatus `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Allowed || body.Data.NextAllowedAt == nil {
		t.Fatalf("expected denial with next_allowed_at, got %+v", body.Data)
	}
	if want := now.Add(22 * time.Hour); !body.Data.NextAllowedAt.Equal(want) {
		t.Fatalf("expected next_allowed_at %v, got %v", want, body.Data.NextAllowedAt)
	}
}

func TestServiceRecordGeneration(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo(&Campaign{ID: 9})
	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	if err := svc.RecordGeneration(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status, err := svc.CanGenerateVariants(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Allowed {
		t.Fatal("expected cooldown right after a recorded generation")
	}
}
