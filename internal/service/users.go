package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"predex/internal/models"
	"predex/internal/repository"
)

type UserService struct {
	Repo    repository.Repository
	Wallets *WalletService
	Logger  *zap.Logger
}

// Create provisions the user and its wallet in one unit of work; every
// user has exactly one wallet from the moment it exists.
func (s *UserService) Create(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	user := &models.User{Username: username}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.CreateUserTx(ctx, tx, user); err != nil {
			return err
		}
		return s.Wallets.CreateTx(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("user created",
		zap.Uint64("user_id", user.ID),
		zap.String("username", username),
	)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, params repository.ListParams) ([]models.User, error) {
	return s.Repo.ListUsers(ctx, params)
}
