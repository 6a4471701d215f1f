package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

func newAssignmentFixture(t *testing.T) (*AssignmentService, *fieldStore) {
	t.Helper()
	store := newFieldStore()
	store.addSurvey("survey-1", "Intenção de voto 2024")
	store.addRegion("region-centro", "Centro", jsonText(map[string]float64{"lat": -23.5505, "lng": -46.6333}))
	store.addRegion("region-leste", "Zona Leste", nil)
	store.addUser(researcherA.ID, models.RoleResearcher)
	store.addUser(researcherB.ID, models.RoleResearcher)
	store.addUser(adminCaller.ID, models.RoleAdmin)

	svc := NewAssignmentService(AssignmentServiceParams{
		Repo:    store,
		Surveys: surveyLookup{store},
		Regions: regionLookup{store},
		Users:   userLookup{store},
	})
	svc.now = func() time.Time { return time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func assertAppError(t *testing.T, err error, status int) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %T", err)
	assert.Equal(t, status, appErr.Status)
	return appErr
}

func TestAssignmentCreateStartsPendingWithZeroProgress(t *testing.T) {
	svc, _ := newAssignmentFixture(t)

	view, err := svc.Create(context.Background(), adminCaller, dto.CreateAssignmentRequest{
		SurveyID:        "survey-1",
		RegionID:        "region-centro",
		ResearcherID:    strPtr(researcherA.ID),
		TargetResponses: 50,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, 0, view.CompletedResponses)
	assert.Equal(t, models.AssignmentStatusPending, view.Status)
	assert.Equal(t, 0, view.ProgressPercent)
	assert.Equal(t, "Centro", view.RegionName)
	assert.Equal(t, "Intenção de voto 2024", view.SurveyTitle)
	require.NotNil(t, view.ResearcherName)
	assert.Equal(t, researcherA.ID, *view.ResearcherName)
}

func TestAssignmentCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := newAssignmentFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, adminCaller, dto.CreateAssignmentRequest{SurveyID: "survey-1", RegionID: "region-centro", TargetResponses: 0})
	appErr := assertAppError(t, err, http.StatusBadRequest)
	require.NotEmpty(t, appErr.Details)
	assert.Equal(t, "targetResponses", appErr.Details[0].Field)

	_, err = svc.Create(ctx, adminCaller, dto.CreateAssignmentRequest{SurveyID: "missing", RegionID: "region-centro", TargetResponses: 5})
	assertAppError(t, err, http.StatusNotFound)

	_, err = svc.Create(ctx, adminCaller, dto.CreateAssignmentRequest{SurveyID: "survey-1", RegionID: "missing", TargetResponses: 5})
	assertAppError(t, err, http.StatusNotFound)

	_, err = svc.Create(ctx, adminCaller, dto.CreateAssignmentRequest{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr("ghost"), TargetResponses: 5})
	assertAppError(t, err, http.StatusNotFound)

	// admins cannot be assigned field work
	_, err = svc.Create(ctx, adminCaller, dto.CreateAssignmentRequest{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(adminCaller.ID), TargetResponses: 5})
	assertAppError(t, err, http.StatusNotFound)

	_, err = svc.Create(ctx, researcherA, dto.CreateAssignmentRequest{SurveyID: "survey-1", RegionID: "region-centro", TargetResponses: 5})
	assertAppError(t, err, http.StatusForbidden)
}

func TestAssignmentListScopedByRole(t *testing.T) {
	svc, store := newAssignmentFixture(t)
	ctx := context.Background()
	ownedA := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 10})
	ownedB := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-leste", ResearcherID: strPtr(researcherB.ID), TargetResponses: 10})
	unassigned := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-leste", TargetResponses: 10})

	cases := []struct {
		name   string
		caller models.Caller
		want   []string
	}{
		{name: "admin sees all", caller: adminCaller, want: []string{ownedA.ID, ownedB.ID, unassigned.ID}},
		{name: "researcher a sees own", caller: researcherA, want: []string{ownedA.ID}},
		{name: "researcher b sees own", caller: researcherB, want: []string{ownedB.ID}},
		{name: "researcher without assignments", caller: models.Caller{ID: "researcher-c", Role: models.RoleResearcher}, want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			views, err := svc.List(ctx, tc.caller)
			require.NoError(t, err)
			ids := make([]string, 0, len(views))
			for _, v := range views {
				ids = append(ids, v.ID)
			}
			assert.ElementsMatch(t, tc.want, ids)
		})
	}
}

func TestAssignmentListFiltersRowsTheStoreLeaksToResearchers(t *testing.T) {
	svc, store := newAssignmentFixture(t)
	store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherB.ID), TargetResponses: 10})
	svc.repo = leakyAssignments{store}

	views, err := svc.List(context.Background(), researcherA)
	require.NoError(t, err)
	assert.Empty(t, views)
}

// leakyAssignments ignores the researcher filter to prove the service enforces scoping itself.
type leakyAssignments struct{ *fieldStore }

func (l leakyAssignments) List(ctx context.Context, researcherID string) ([]dto.AssignmentDetail, error) {
	return l.fieldStore.List(ctx, "")
}

func TestAssignmentGetHidesOtherResearchersRows(t *testing.T) {
	svc, store := newAssignmentFixture(t)
	ctx := context.Background()
	owned := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 10})

	view, err := svc.Get(ctx, researcherA, owned.ID)
	require.NoError(t, err)
	assert.Equal(t, owned.ID, view.ID)

	_, err = svc.Get(ctx, researcherB, owned.ID)
	assertAppError(t, err, http.StatusNotFound)

	_, err = svc.Get(ctx, adminCaller, owned.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, adminCaller, "missing")
	assertAppError(t, err, http.StatusNotFound)
}

func TestAssignmentDerivedFields(t *testing.T) {
	svc, store := newAssignmentFixture(t)
	past := svc.now().Add(-24 * time.Hour)
	future := svc.now().Add(24 * time.Hour)

	overdue := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", TargetResponses: 3, CompletedResponses: 1, Status: models.AssignmentStatusInProgress, DueDate: &past})
	doneLate := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", TargetResponses: 3, CompletedResponses: 3, Status: models.AssignmentStatusCompleted, DueDate: &past})
	anomaly := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", TargetResponses: 2, CompletedResponses: 3, Status: models.AssignmentStatusInProgress, DueDate: &future})

	view, err := svc.Get(context.Background(), adminCaller, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusOverdue, view.DisplayStatus)
	assert.Equal(t, models.AssignmentStatusInProgress, view.Status)
	assert.Equal(t, 33, view.ProgressPercent)

	view, err = svc.Get(context.Background(), adminCaller, doneLate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCompleted, view.DisplayStatus)
	assert.Equal(t, 100, view.ProgressPercent)

	view, err = svc.Get(context.Background(), adminCaller, anomaly.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, view.ProgressPercent)
	assert.True(t, view.OverQuota)
}

func TestAssignmentUpdateRules(t *testing.T) {
	svc, store := newAssignmentFixture(t)
	ctx := context.Background()
	a := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 10, CompletedResponses: 4})

	t.Run("target below progress", func(t *testing.T) {
		target := 3
		_, err := svc.Update(ctx, adminCaller, a.ID, dto.UpdateAssignmentRequest{TargetResponses: &target})
		appErr := assertAppError(t, err, http.StatusBadRequest)
		require.Len(t, appErr.Details, 1)
		assert.Equal(t, "targetResponses", appErr.Details[0].Field)
	})

	t.Run("non positive target", func(t *testing.T) {
		target := 0
		_, err := svc.Update(ctx, adminCaller, a.ID, dto.UpdateAssignmentRequest{TargetResponses: &target})
		assertAppError(t, err, http.StatusBadRequest)
	})

	t.Run("unknown status", func(t *testing.T) {
		status := models.AssignmentStatus("archived")
		_, err := svc.Update(ctx, adminCaller, a.ID, dto.UpdateAssignmentRequest{Status: &status})
		assertAppError(t, err, http.StatusBadRequest)
	})

	t.Run("researcher cannot update", func(t *testing.T) {
		target := 20
		_, err := svc.Update(ctx, researcherA, a.ID, dto.UpdateAssignmentRequest{TargetResponses: &target})
		assertAppError(t, err, http.StatusForbidden)
	})

	t.Run("reassign and lower target to progress", func(t *testing.T) {
		target := 4
		view, err := svc.Update(ctx, adminCaller, a.ID, dto.UpdateAssignmentRequest{TargetResponses: &target, ResearcherID: strPtr(researcherB.ID)})
		require.NoError(t, err)
		assert.Equal(t, 4, view.TargetResponses)
		assert.Equal(t, 100, view.ProgressPercent)
		require.NotNil(t, view.ResearcherID)
		assert.Equal(t, researcherB.ID, *view.ResearcherID)
		// quota reached does not move the status
		assert.Equal(t, models.AssignmentStatusPending, view.Status)
	})

	t.Run("unassign", func(t *testing.T) {
		view, err := svc.Update(ctx, adminCaller, a.ID, dto.UpdateAssignmentRequest{Unassign: true})
		require.NoError(t, err)
		assert.Nil(t, view.ResearcherID)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		completed := models.AssignmentStatusCompleted
		view, err := svc.Update(ctx, adminCaller, a.ID, dto.UpdateAssignmentRequest{Status: &completed})
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusCompleted, view.Status)

		reopen := models.AssignmentStatusInProgress
		_, err = svc.Update(ctx, adminCaller, a.ID, dto.UpdateAssignmentRequest{Status: &reopen})
		assertAppError(t, err, http.StatusConflict)
	})

	t.Run("missing assignment", func(t *testing.T) {
		target := 10
		_, err := svc.Update(ctx, adminCaller, "missing", dto.UpdateAssignmentRequest{TargetResponses: &target})
		assertAppError(t, err, http.StatusNotFound)
	})
}

func TestAssignmentUpdateConflictWhenProgressOvertakesTarget(t *testing.T) {
	svc, store := newAssignmentFixture(t)
	a := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", TargetResponses: 10, CompletedResponses: 4})
	svc.repo = racingAssignments{fieldStore: store, completed: 6}

	target := 5
	_, err := svc.Update(context.Background(), adminCaller, a.ID, dto.UpdateAssignmentRequest{TargetResponses: &target})
	assertAppError(t, err, http.StatusConflict)
}

// racingAssignments records extra completions between the read and the write.
type racingAssignments struct {
	*fieldStore
	completed int
}

func (r racingAssignments) Update(ctx context.Context, a *models.Assignment) error {
	r.mu.Lock()
	r.assignments[a.ID].CompletedResponses = r.completed
	r.mu.Unlock()
	return r.fieldStore.Update(ctx, a)
}

func TestAssignmentMapMarkers(t *testing.T) {
	svc, store := newAssignmentFixture(t)
	located := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherA.ID), TargetResponses: 4, CompletedResponses: 1})
	unlocated := store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-leste", ResearcherID: strPtr(researcherA.ID), TargetResponses: 4})
	store.addAssignment(models.Assignment{SurveyID: "survey-1", RegionID: "region-centro", ResearcherID: strPtr(researcherB.ID), TargetResponses: 4})

	markers, err := svc.MapMarkers(context.Background(), researcherA)
	require.NoError(t, err)
	require.Len(t, markers, 2)

	byID := map[string]dto.MapMarker{}
	for _, m := range markers {
		byID[m.AssignmentID] = m
	}
	withLocation := byID[located.ID]
	assert.True(t, withLocation.HasLocation)
	require.NotNil(t, withLocation.Lat)
	assert.InDelta(t, -23.5505, *withLocation.Lat, 1e-9)
	assert.InDelta(t, -46.6333, *withLocation.Lng, 1e-9)
	assert.Equal(t, 25, withLocation.ProgressPercent)

	withoutLocation := byID[unlocated.ID]
	assert.False(t, withoutLocation.HasLocation)
	assert.Nil(t, withoutLocation.Lat)
	assert.Nil(t, withoutLocation.Lng)

	all, err := svc.MapMarkers(context.Background(), adminCaller)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestParseGeoPointRequiresBothCoordinates(t *testing.T) {
	row := &dto.AssignmentDetail{RegionCoordinates: jsonText(map[string]float64{"lat": 1})}
	_, ok := parseGeoPoint(row)
	assert.False(t, ok)

	row.RegionCoordinates = jsonText(map[string]float64{"lat": 0, "lng": 0})
	point, ok := parseGeoPoint(row)
	assert.True(t, ok)
	assert.Equal(t, models.GeoPoint{}, point)
}
