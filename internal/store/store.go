package store

import (
	"context"
	"errors"

	"hushnet/internal/domain"

	"gorm.io/gorm"
)

var ErrRecordNotFound = gorm.ErrRecordNotFound

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.DB == nil {
		return errors.New("store: nil db")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(
		&domain.User{},
		&domain.Device{},
		&domain.Chat{},
		&domain.Session{},
		&domain.PendingSession{},
		&domain.Message{},
		&domain.UsedToken{},
	)
}
