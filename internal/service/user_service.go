package service

import (
	"context"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/internal/pkg/apperror"
	"subscription-cancel-be/internal/pkg/metrics"
	"subscription-cancel-be/internal/repository/specification"
	"subscription-cancel-be/internal/repository/unitofwork"
)

type IUserService interface {
	ListEmails(ctx context.Context) (*dto.UserListResponse, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	metrics    *metrics.Metrics
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, m *metrics.Metrics) IUserService {
	return &userService{
		uowFactory: uowFactory,
		metrics:    m,
	}
}

// ListEmails is a development aid for switching between seeded users.
func (s *userService) ListEmails(ctx context.Context) (*dto.UserListResponse, error) {
	if s.uowFactory == nil {
		return nil, apperror.ErrNotConfigured
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	users, err := uow.UserRepository().FindAll(ctx, specification.OrderBy{Field: "email"})
	if err != nil {
		s.metrics.GatewayError("list_users")
		return nil, apperror.Gateway("list users", err)
	}

	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	return &dto.UserListResponse{Users: emails}, nil
}
