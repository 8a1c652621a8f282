package variant

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/upsurge/campaign-lab/internal/domain/activity"
	"github.com/upsurge/campaign-lab/internal/domain/campaign"
	"github.com/upsurge/campaign-lab/internal/domain/notification"
	"github.com/upsurge/campaign-lab/internal/pkg/llm"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type stubRepo struct {
	mu          sync.Mutex
	variants    map[int64]*Variant
	nextID      int64
	statusCalls int
	writes      int
	createErr   error
}

func newStubRepo(vs ...*Variant) *stubRepo {
	r := &stubRepo{variants: make(map[int64]*Variant), nextID: 0}
	for _, v := range vs {
		r.variants[v.ID] = v
		if v.ID > r.nextID {
			r.nextID = v.ID
		}
	}
	return r
}

func (r *stubRepo) CreateBatch(ctx context.Context, variants []*Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, v := range variants {
		r.nextID++
		v.ID = r.nextID
		cp := *v
		r.variants[v.ID] = &cp
	}
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, id int64) (*Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, ErrVariantNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *stubRepo) ListByCampaign(ctx context.Context, campaignID int64, filter Filter) ([]*Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Variant
	for id := int64(1); id <= r.nextID; id++ {
		v, ok := r.variants[id]
		if !ok || v.CampaignID != campaignID || !filter.Matches(v) {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubRepo) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return ErrVariantNotFound
	}
	r.statusCalls++
	v.Status = status
	v.UpdatedAt = at
	return nil
}

func (r *stubRepo) UpdateLifecycle(ctx context.Context, v *Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.variants[v.ID]; !ok {
		return ErrVariantNotFound
	}
	r.writes++
	cp := *v
	r.variants[v.ID] = &cp
	return nil
}

func (r *stubRepo) AddCounters(ctx context.Context, id int64, delta Counters, at time.Time) (*Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, ErrVariantNotFound
	}
	ApplyCounters(v, delta, at)
	cp := *v
	return &cp, nil
}

func (r *stubRepo) UpdateImage(ctx context.Context, id int64, imageURL string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return ErrVariantNotFound
	}
	v.ImageURL.String, v.ImageURL.Valid = imageURL, true
	return nil
}

func (r *stubRepo) get(id int64) Variant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.variants[id]
}

type stubCampaigns struct {
	mu        sync.Mutex
	campaigns map[int64]*campaign.Campaign
	now       time.Time
	recordErr error
}

func newStubCampaigns(cs ...*campaign.Campaign) *stubCampaigns {
	s := &stubCampaigns{campaigns: make(map[int64]*campaign.Campaign), now: testNow}
	for _, c := range cs {
		s.campaigns[c.ID] = c
	}
	return s
}

func (s *stubCampaigns) GetByID(ctx context.Context, id int64) (*campaign.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, campaign.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *stubCampaigns) CanGenerateVariants(ctx context.Context, id int64) (campaign.RateLimitStatus, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return campaign.RateLimitStatus{}, err
	}
	return campaign.CanGenerate(c, s.now), nil
}

func (s *stubCampaigns) RecordGeneration(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	c, ok := s.campaigns[id]
	if !ok {
		return campaign.ErrCampaignNotFound
	}
	campaign.RecordGeneration(c, s.now)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, e notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []activity.Record
}

func (r *recordingRecorder) Record(ctx context.Context, rec activity.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

type fakeText struct {
	reply string
	err   error
	calls int
	last  llm.Request
}

func (f *fakeText) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func validDrafts() []Draft {
	out := make([]Draft, 0, DraftsPerBatch)
	for _, angle := range RequiredAngles() {
		out = append(out, Draft{
			Name:               angle + " Angle",
			PsychologicalAngle: angle,
			Headline:           "Spring sale ends Friday",
			BodyCopy:           "Save on every plan this week.",
			CallToAction:       "Shop now",
			ImagePrompt:        "A bright storefront at dawn",
		})
	}
	return out
}

func draftsReply(drafts []Draft) string {
	raw, _ := json.Marshal(map[string]interface{}{"variants": drafts})
	return string(raw)
}

func testCampaign() *campaign.Campaign {
	return &campaign.Campaign{
		ID:     10,
		UserID: 7,
		Name:   "Spring Launch",
		Goal:   "Drive trial signups",
		Status: campaign.StatusActive,
	}
}

type fixture struct {
	repo      *stubRepo
	campaigns *stubCampaigns
	notifier  *recordingNotifier
	recorder  *recordingRecorder
	text      *fakeText
	service   *Service
}

func newFixture(vs ...*Variant) *fixture {
	f := &fixture{
		repo:      newStubRepo(vs...),
		campaigns: newStubCampaigns(testCampaign()),
		notifier:  &recordingNotifier{},
		recorder:  &recordingRecorder{},
		text:      &fakeText{reply: draftsReply(validDrafts())},
	}
	f.service = NewService(f.repo, f.campaigns, NewGenerator(f.text), f.notifier, f.recorder)
	f.service.now = func() time.Time { return testNow }
	return f
}

func testVariant(id int64, c Counters) *Variant {
	v := &Variant{
		ID:                 id,
		CampaignID:         10,
		Name:               "Variant",
		PsychologicalAngle: AngleScarcity,
		AdCopy:             "copy",
		Status:             StatusTesting,
		ApprovalStatus:     ApprovalPending,
		DeploymentStatus:   DeploymentNotDeployed,
		CreatedAt:          testNow,
		UpdatedAt:          testNow,
	}
	ApplyCounters(v, c, testNow)
	return v
}
