package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
)

type responseFixture struct {
	svc         *ResponseService
	assignments *AssignmentService
	store       *fieldStore
	metrics     *MetricsService
	cache       *memoryCache
}

func newResponseFixture(t *testing.T) *responseFixture {
	t.Helper()
	store := newFieldStore()
	store.addSurvey("survey-1", "Intenção de voto 2024")
	store.addRegion("region-centro", "Centro", nil)
	store.addUser(researcherA.ID, models.RoleResearcher)
	store.addUser(researcherB.ID, models.RoleResearcher)
	store.questions["survey-1"] = []models.Question{
		{ID: "q-vote", SurveyID: "survey-1", Question: "Em quem você votaria?", Type: models.QuestionTypeRadio, Options: jsonText([]string{"A", "B", "Nulo"}), Required: true, Order: 1},
		{ID: "q-issues", SurveyID: "survey-1", Question: "Temas prioritários", Type: models.QuestionTypeCheckbox, Options: jsonText([]string{"Saúde", "Educação", "Segurança"}), Required: false, Order: 2},
		{ID: "q-comment", SurveyID: "survey-1", Question: "Comentários", Type: models.QuestionTypeText, Required: false, Order: 3},
	}

	metrics := NewMetricsService()
	cacheRepo := newMemoryCache()
	cache := NewCacheService(cacheRepo, metrics, 0, nil, true)

	svc := NewResponseService(ResponseServiceParams{
		Repo:        responseStore{store},
		Assignments: store,
		Questions:   questionLookup{store},
		Cache:       cache,
		Metrics:     metrics,
	})
	assignments := NewAssignmentService(AssignmentServiceParams{
		Repo:    store,
		Surveys: surveyLookup{store},
		Regions: regionLookup{store},
		Users:   userLookup{store},
		Cache:   cache,
	})
	return &responseFixture{svc: svc, assignments: assignments, store: store, metrics: metrics, cache: cacheRepo}
}

func voteAnswers(choice string) map[string]json.RawMessage {
	raw, _ := json.Marshal(choice)
	return map[string]json.RawMessage{"q-vote": raw}
}

func completedFor(assignmentID, choice string) dto.SubmitResponseRequest {
	return dto.SubmitResponseRequest{AssignmentID: assignmentID, Answers: voteAnswers(choice), Status: models.ResponseStatusCompleted}
}

func TestSubmitCompletedAdvancesProgress(t *testing.T) {
	f := newResponseFixture(t)
	a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 3})

	resp, err := f.svc.Submit(context.Background(), researcherA, dto.SubmitResponseRequest{
		AssignmentID: a.ID,
		Answers:      voteAnswers("A"),
		Demographics: &models.RespondentDemographics{Age: "25-34", Gender: "F"},
		Location:     &models.GeoPoint{Lat: -23.55, Lng: -46.63},
		Status:       models.ResponseStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusCompleted, resp.Status)
	assert.Equal(t, "survey-1", resp.SurveyID)
	assert.Equal(t, researcherA.ID, resp.ResearcherID)
	require.NotNil(t, resp.CompletedAt)
	require.NotNil(t, resp.Demographics)
	assert.JSONEq(t, `{"age":"25-34","gender":"F"}`, string(*resp.Demographics))
	assert.Equal(t, 1, f.store.completed(a.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.responses.WithLabelValues("completed")))
	assert.Contains(t, f.cache.invalidated, reportCachePattern)
}

func TestSubmitDraftDoesNotCount(t *testing.T) {
	f := newResponseFixture(t)
	a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 3})

	resp, err := f.svc.Submit(context.Background(), researcherA, dto.SubmitResponseRequest{AssignmentID: a.ID, Answers: voteAnswers("B")})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusDraft, resp.Status)
	assert.Nil(t, resp.CompletedAt)
	assert.Equal(t, 0, f.store.completed(a.ID))
}

func TestSubmitRejectsForeignAssignment(t *testing.T) {
	f := newResponseFixture(t)
	a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 3})
	unassigned := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", TargetResponses: 3})

	_, err := f.svc.Submit(context.Background(), researcherB, completedFor(a.ID, "A"))
	assertAppError(t, err, http.StatusForbidden)

	_, err = f.svc.Submit(context.Background(), researcherB, completedFor(unassigned.ID, "A"))
	assertAppError(t, err, http.StatusForbidden)

	_, err = f.svc.Submit(context.Background(), researcherA, completedFor("missing", "A"))
	assertAppError(t, err, http.StatusNotFound)

	assert.Equal(t, 0, f.store.completed(a.ID))
}

func TestSubmitValidatesAnswers(t *testing.T) {
	f := newResponseFixture(t)
	a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 3})

	_, err := f.svc.Submit(context.Background(), researcherA, completedFor(a.ID, "Ninguém"))
	appErr := assertAppError(t, err, http.StatusBadRequest)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "answers.q-vote", appErr.Details[0].Field)

	_, err = f.svc.Submit(context.Background(), researcherA, dto.SubmitResponseRequest{
		AssignmentID: a.ID,
		Answers:      map[string]json.RawMessage{"q-comment": json.RawMessage(`"ok"`)},
		Status:       models.ResponseStatusCompleted,
	})
	appErr = assertAppError(t, err, http.StatusBadRequest)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "answers.q-vote", appErr.Details[0].Field)
	assert.Equal(t, "is required", appErr.Details[0].Message)

	_, err = f.svc.Submit(context.Background(), researcherA, dto.SubmitResponseRequest{AssignmentID: a.ID, Answers: voteAnswers("A"), Status: "archived"})
	assertAppError(t, err, http.StatusBadRequest)

	assert.Equal(t, 0, f.store.completed(a.ID))
}

func TestSubmitQuotaBoundaryAndRejection(t *testing.T) {
	f := newResponseFixture(t)
	a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 2, CompletedResponses: 1})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, researcherA, completedFor(a.ID, "A"))
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.completed(a.ID))

	view, err := f.assignments.Get(ctx, researcherA, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, view.ProgressPercent)

	_, err = f.svc.Submit(ctx, researcherA, completedFor(a.ID, "B"))
	appErr := assertAppError(t, err, http.StatusConflict)
	assert.Equal(t, "assignment quota reached", appErr.Message)
	assert.Equal(t, 2, f.store.completed(a.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.quotaRejections))

	// drafts are still accepted once the quota is met
	_, err = f.svc.Submit(ctx, researcherA, dto.SubmitResponseRequest{AssignmentID: a.ID, Answers: voteAnswers("B")})
	require.NoError(t, err)
}

func TestUpdateDraftIsIdempotentUntilCompleted(t *testing.T) {
	f := newResponseFixture(t)
	a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 5})
	ctx := context.Background()

	draft, err := f.svc.Submit(ctx, researcherA, dto.SubmitResponseRequest{AssignmentID: a.ID, Answers: voteAnswers("A")})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.UpdateDraft(ctx, researcherA, draft.ID, dto.UpdateResponseRequest{Answers: voteAnswers("B")})
		require.NoError(t, err)
	}
	assert.Equal(t, 0, f.store.completed(a.ID))

	done, err := f.svc.UpdateDraft(ctx, researcherA, draft.ID, dto.UpdateResponseRequest{Answers: voteAnswers("B"), Status: models.ResponseStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusCompleted, done.Status)
	assert.Equal(t, 1, f.store.completed(a.ID))

	_, err = f.svc.UpdateDraft(ctx, researcherA, draft.ID, dto.UpdateResponseRequest{Answers: voteAnswers("B"), Status: models.ResponseStatusCompleted})
	assertAppError(t, err, http.StatusConflict)
	assert.Equal(t, 1, f.store.completed(a.ID))

	_, err = f.svc.UpdateDraft(ctx, researcherB, draft.ID, dto.UpdateResponseRequest{Answers: voteAnswers("B")})
	assertAppError(t, err, http.StatusForbidden)
}

// The fixture store serialises increments with a mutex, standing in for the
// conditional UPDATE in repository.incrementProgressQuery
// (completed_responses < target_responses ... RETURNING), whose SQL is pinned by
// TestResponseRepositoryCreateCompletedQuotaReachedRollsBack. This test checks the
// service's counting and conflict handling, not database atomicity.
func TestConcurrentCompletionsCountExactly(t *testing.T) {
	f := newResponseFixture(t)
	const workers = 40
	a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 100})

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Submit(context.Background(), researcherA, completedFor(a.ID, "A"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, workers, f.store.completed(a.ID))
}

func TestConcurrentCompletionsNeverExceedQuota(t *testing.T) {
	f := newResponseFixture(t)
	const workers = 25
	a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 10})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Submit(context.Background(), researcherA, completedFor(a.ID, "A")); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, accepted)
	assert.Equal(t, 10, f.store.completed(a.ID))
}

func TestFieldWorkScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("assign and collect", func(t *testing.T) {
		f := newResponseFixture(t)
		view, err := f.assignments.Create(ctx, adminCaller, dto.CreateAssignmentRequest{
			SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 50,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, view.CompletedResponses)
		assert.Equal(t, models.AssignmentStatusPending, view.Status)

		mine, err := f.assignments.List(ctx, researcherA)
		require.NoError(t, err)
		require.Len(t, mine, 1)

		_, err = f.svc.Submit(ctx, researcherA, completedFor(view.ID, "A"))
		require.NoError(t, err)

		got, err := f.assignments.Get(ctx, researcherA, view.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CompletedResponses)
		assert.Equal(t, 2, got.ProgressPercent)
	})

	t.Run("reaching quota leaves status to the admin", func(t *testing.T) {
		f := newResponseFixture(t)
		a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 2, Status: models.AssignmentStatusInProgress})
		for _, choice := range []string{"A", "B"} {
			_, err := f.svc.Submit(ctx, researcherA, completedFor(a.ID, choice))
			require.NoError(t, err)
		}
		got, err := f.assignments.Get(ctx, adminCaller, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, got.ProgressPercent)
		assert.Equal(t, models.AssignmentStatusInProgress, got.Status)
	})

	t.Run("researchers are isolated", func(t *testing.T) {
		f := newResponseFixture(t)
		a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 2})

		visible, err := f.assignments.List(ctx, researcherB)
		require.NoError(t, err)
		assert.Empty(t, visible)

		_, err = f.svc.Submit(ctx, researcherB, completedFor(a.ID, "A"))
		assertAppError(t, err, http.StatusForbidden)
		assert.Equal(t, 0, f.store.completed(a.ID))
	})
}

func TestListResponsesScopedByRole(t *testing.T) {
	f := newResponseFixture(t)
	ctx := context.Background()
	a := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 5})
	b := f.store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherB.ID), TargetResponses: 5})
	_, err := f.svc.Submit(ctx, researcherA, completedFor(a.ID, "A"))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, researcherB, completedFor(b.ID, "B"))
	require.NoError(t, err)

	own, err := f.svc.List(ctx, researcherA, "")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, researcherA.ID, own[0].ResearcherID)

	foreign, err := f.svc.List(ctx, researcherA, b.ID)
	require.NoError(t, err)
	assert.Empty(t, foreign)

	all, err := f.svc.List(ctx, adminCaller, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := f.svc.List(ctx, adminCaller, b.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, b.ID, scoped[0].AssignmentID)
}
