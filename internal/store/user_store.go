package store

import (
	"context"

	"hushnet/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	return u.db.WithContext(ctx).Create(usr).Error
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var usr domain.User
	if err := u.db.WithContext(ctx).First(&usr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &usr, nil
}

func (u *UserStore) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := u.db.WithContext(ctx).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
