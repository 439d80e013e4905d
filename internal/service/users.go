package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/repository"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// GetOrCreateUser looks a user up by wallet address, creating the record on
// first contact. A fresh user starts with empty pending and completed sets,
// which is what routes their first submission onto the onboarding path.
func (s *UserService) GetOrCreateUser(ctx context.Context, address string) (*model.User, error) {
	user, err := s.repo.GetUserByAddress(ctx, address)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by address: %w", err)
	}

	user, err = s.repo.CreateUser(ctx, address)
	if err != nil {
		// Two concurrent first requests can race the insert; the loser
		// reads the row the winner created.
		if errors.Is(err, repository.ErrAlreadyExists) {
			return s.repo.GetUserByAddress(ctx, address)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUserByAddress(ctx context.Context, address string) (*model.User, error) {
	user, err := s.repo.GetUserByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by address: %w", err)
	}
	return user, nil
}
