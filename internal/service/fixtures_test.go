package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/internal/repository"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

var (
	adminCaller = models.Caller{ID: "admin-1", Role: models.RoleAdmin}
	researcherA = models.Caller{ID: "researcher-a", Role: models.RoleResearcher}
	researcherB = models.Caller{ID: "researcher-b", Role: models.RoleResearcher}
)

func strPtr(s string) *string { return &s }

func jsonText(v interface{}) *types.JSONText {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	doc := types.JSONText(raw)
	return &doc
}

// fieldStore is an in-memory stand-in for the assignment and response tables. Progress is
// advanced under a single lock with the same guard the SQL increment uses.
type fieldStore struct {
	mu          sync.Mutex
	surveys     map[string]*models.Survey
	regions     map[string]*models.Region
	users       map[string]*models.User
	assignments map[string]*models.Assignment
	responses   map[string]*models.Response
	questions   map[string][]models.Question
	order       []string
}

func newFieldStore() *fieldStore {
	return &fieldStore{
		surveys:     map[string]*models.Survey{},
		regions:     map[string]*models.Region{},
		users:       map[string]*models.User{},
		assignments: map[string]*models.Assignment{},
		responses:   map[string]*models.Response{},
		questions:   map[string][]models.Question{},
	}
}

func (f *fieldStore) addSurvey(id, title string) {
	f.surveys[id] = &models.Survey{ID: id, Title: title, Status: models.SurveyStatusActive, CreatedBy: adminCaller.ID}
}

func (f *fieldStore) addRegion(id, name string, coords *types.JSONText) {
	f.regions[id] = &models.Region{ID: id, Name: name, City: "São Paulo", State: "SP", Coordinates: coords}
}

func (f *fieldStore) addUser(id string, role models.UserRole) {
	f.users[id] = &models.User{ID: id, Username: id, Name: id, Role: role}
}

func (f *fieldStore) addAssignment(a models.Assignment) *models.Assignment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.AssignmentStatusPending
	}
	stored := a
	f.assignments[a.ID] = &stored
	f.order = append(f.order, a.ID)
	return &stored
}

func (f *fieldStore) completed(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assignments[id].CompletedResponses
}

type surveyLookup struct{ store *fieldStore }

func (l surveyLookup) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	if s, ok := l.store.surveys[id]; ok {
		found := *s
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type regionLookup struct{ store *fieldStore }

func (l regionLookup) FindByID(ctx context.Context, id string) (*models.Region, error) {
	if r, ok := l.store.regions[id]; ok {
		found := *r
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type userLookup struct{ store *fieldStore }

func (l userLookup) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := l.store.users[id]; ok {
		found := *u
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type questionLookup struct{ store *fieldStore }

func (l questionLookup) ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error) {
	return append([]models.Question(nil), l.store.questions[surveyID]...), nil
}

// assignmentRepository

func (f *fieldStore) List(ctx context.Context, researcherID string) ([]dto.AssignmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []dto.AssignmentDetail
	for _, id := range f.order {
		a := f.assignments[id]
		if researcherID != "" && !a.OwnedBy(researcherID) {
			continue
		}
		rows = append(rows, f.detail(a))
	}
	return rows, nil
}

func (f *fieldStore) FindDetail(ctx context.Context, id string) (*dto.AssignmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := f.detail(a)
	return &detail, nil
}

func (f *fieldStore) detail(a *models.Assignment) dto.AssignmentDetail {
	detail := dto.AssignmentDetail{Assignment: *a}
	if s, ok := f.surveys[a.SurveyID]; ok {
		detail.SurveyTitle = s.Title
	}
	if r, ok := f.regions[a.RegionID]; ok {
		detail.RegionName = r.Name
		detail.RegionCity = r.City
		detail.RegionCoordinates = r.Coordinates
	}
	if a.ResearcherID != nil {
		if u, ok := f.users[*a.ResearcherID]; ok {
			detail.ResearcherName = strPtr(u.Name)
		}
	}
	return detail
}

func (f *fieldStore) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *a
	return &found, nil
}

func (f *fieldStore) Create(ctx context.Context, a *models.Assignment) error {
	a.CompletedResponses = 0
	a.Status = models.AssignmentStatusPending
	stored := f.addAssignment(*a)
	a.ID = stored.ID
	return nil
}

func (f *fieldStore) Update(ctx context.Context, a *models.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.assignments[a.ID]
	if !ok || current.CompletedResponses > a.TargetResponses {
		return sql.ErrNoRows
	}
	current.TargetResponses = a.TargetResponses
	current.ResearcherID = a.ResearcherID
	current.DueDate = a.DueDate
	current.Status = a.Status
	return nil
}

// responseRepository

type responseStore struct{ *fieldStore }

func (r responseStore) FindByID(ctx context.Context, id string) (*models.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *resp
	return &found, nil
}

func (r responseStore) List(ctx context.Context, filter models.ResponseFilter) ([]models.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Response
	for _, resp := range r.responses {
		if filter.AssignmentID != "" && resp.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.ResearcherID != "" && resp.ResearcherID != filter.ResearcherID {
			continue
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (r responseStore) CreateDraft(ctx context.Context, resp *models.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp.ID = uuid.NewString()
	resp.Status = models.ResponseStatusDraft
	resp.CreatedAt = time.Now()
	resp.UpdatedAt = resp.CreatedAt
	stored := *resp
	r.responses[resp.ID] = &stored
	return nil
}

func (r responseStore) CreateCompleted(ctx context.Context, resp *models.Response) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	completed, err := r.increment(resp.AssignmentID)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	resp.ID = uuid.NewString()
	resp.Status = models.ResponseStatusCompleted
	resp.CreatedAt, resp.UpdatedAt, resp.CompletedAt = now, now, &now
	stored := *resp
	r.responses[resp.ID] = &stored
	return completed, nil
}

func (r responseStore) UpdateDraft(ctx context.Context, resp *models.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.responses[resp.ID]
	if !ok || stored.Status != models.ResponseStatusDraft {
		return sql.ErrNoRows
	}
	stored.Answers = resp.Answers
	stored.Demographics = resp.Demographics
	stored.Location = resp.Location
	return nil
}

func (r responseStore) CompleteDraft(ctx context.Context, resp *models.Response) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.responses[resp.ID]
	if !ok || stored.Status != models.ResponseStatusDraft {
		return 0, sql.ErrNoRows
	}
	completed, err := r.increment(stored.AssignmentID)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	stored.Status = models.ResponseStatusCompleted
	stored.Answers = resp.Answers
	stored.CompletedAt = &now
	resp.Status = models.ResponseStatusCompleted
	resp.CompletedAt = &now
	return completed, nil
}

func (r responseStore) increment(assignmentID string) (int, error) {
	a, ok := r.assignments[assignmentID]
	if !ok || a.CompletedResponses >= a.TargetResponses {
		return 0, repository.ErrQuotaReached
	}
	a.CompletedResponses++
	return a.CompletedResponses, nil
}

// memoryCache satisfies CacheRepository with JSON round trips like redis.
type memoryCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, pattern)
	m.items = map[string][]byte{}
	return nil
}
