package service

import (
	"context"

	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

type userLister interface {
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

// ResearcherService exposes the researcher directory to admins.
type ResearcherService struct {
	users userLister
}

// NewResearcherService constructs the service.
func NewResearcherService(users userLister) *ResearcherService {
	return &ResearcherService{users: users}
}

// List returns every researcher account. Password hashes never leave the model.
func (s *ResearcherService) List(ctx context.Context, caller models.Caller) ([]models.User, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can list researchers")
	}
	users, err := s.users.ListByRole(ctx, models.RoleResearcher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list researchers")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
