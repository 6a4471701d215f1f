package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/pkg/response"
)

type surveyService interface {
	List(ctx context.Context, caller models.Caller) ([]models.Survey, error)
	Get(ctx context.Context, id string) (*models.Survey, error)
	Create(ctx context.Context, caller models.Caller, req dto.CreateSurveyRequest) (*models.Survey, error)
	Update(ctx context.Context, caller models.Caller, id string, req dto.UpdateSurveyRequest) (*models.Survey, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
}

type questionService interface {
	List(ctx context.Context, surveyID string) ([]models.Question, error)
	Create(ctx context.Context, caller models.Caller, surveyID string, req dto.QuestionRequest) (*models.Question, error)
	Update(ctx context.Context, caller models.Caller, id string, req dto.QuestionRequest) (*models.Question, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
}

// SurveyHandler exposes survey and questionnaire endpoints.
type SurveyHandler struct {
	surveys   surveyService
	questions questionService
}

// NewSurveyHandler constructs the handler.
func NewSurveyHandler(surveys surveyService, questions questionService) *SurveyHandler {
	return &SurveyHandler{surveys: surveys, questions: questions}
}

// List godoc
// @Summary List surveys
// @Description Admins see every survey, researchers only the ones they created
// @Tags Surveys
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /surveys [get]
func (h *SurveyHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	surveys, err := h.surveys.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, surveys)
}

// Get godoc
// @Summary Get survey
// @Tags Surveys
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /surveys/{id} [get]
func (h *SurveyHandler) Get(c *gin.Context) {
	survey, err := h.surveys.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, survey)
}

// Create godoc
// @Summary Create survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Param payload body dto.CreateSurveyRequest true "Survey payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /surveys [post]
func (h *SurveyHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateSurveyRequest
	if !bindJSON(c, &req, "invalid survey payload") {
		return
	}
	survey, err := h.surveys.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, survey)
}

// Update godoc
// @Summary Update survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Param payload body dto.UpdateSurveyRequest true "Survey changes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /surveys/{id} [put]
func (h *SurveyHandler) Update(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateSurveyRequest
	if !bindJSON(c, &req, "invalid survey payload") {
		return
	}
	survey, err := h.surveys.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, survey)
}

// Delete godoc
// @Summary Delete survey
// @Description Removes the survey with its questions, assignments and responses
// @Tags Surveys
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /surveys/{id} [delete]
func (h *SurveyHandler) Delete(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.surveys.Delete(c.Request.Context(), caller, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "deleted": true})
}

// ListQuestions godoc
// @Summary List survey questions
// @Tags Questions
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /surveys/{id}/questions [get]
func (h *SurveyHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questions.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, questions)
}

// CreateQuestion godoc
// @Summary Add question to survey
// @Tags Questions
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Param payload body dto.QuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /surveys/{id}/questions [post]
func (h *SurveyHandler) CreateQuestion(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.QuestionRequest
	if !bindJSON(c, &req, "invalid question payload") {
		return
	}
	question, err := h.questions.Create(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// UpdateQuestion godoc
// @Summary Replace question
// @Tags Questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body dto.QuestionRequest true "Question payload"
// @Success 200 {object} response.Envelope
// @Router /questions/{id} [put]
func (h *SurveyHandler) UpdateQuestion(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.QuestionRequest
	if !bindJSON(c, &req, "invalid question payload") {
		return
	}
	question, err := h.questions.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, question)
}

// DeleteQuestion godoc
// @Summary Delete question
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Router /questions/{id} [delete]
func (h *SurveyHandler) DeleteQuestion(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.questions.Delete(c.Request.Context(), caller, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "deleted": true})
}
