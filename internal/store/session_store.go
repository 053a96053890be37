package store

import (
	"context"
	"time"

	"hushnet/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionStore struct{ db *gorm.DB }

func (s *Store) Sessions() *SessionStore { return &SessionStore{db: s.DB} }

// Upsert inserts the session for a device pair, or, when the pair
// already has one, refreshes updated_at only. Ratchet columns are never
// overwritten on conflict; advancing them is a client concern.
func (s *SessionStore) Upsert(ctx context.Context, session *domain.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sender_device_id"}, {Name: "receiver_device_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(session).Error
}

func (s *SessionStore) GetByDevicePair(ctx context.Context, senderDeviceID, receiverDeviceID uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	if err := s.db.WithContext(ctx).
		First(&session, "sender_device_id = ? AND receiver_device_id = ?", senderDeviceID, receiverDeviceID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

type PendingSessionStore struct{ db *gorm.DB }

func (s *Store) PendingSessions() *PendingSessionStore { return &PendingSessionStore{db: s.DB} }

// Create inserts a pending offer; a duplicate for the same
// (sender, recipient) device pair is silently ignored.
func (p *PendingSessionStore) Create(ctx context.Context, offer *domain.PendingSession) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sender_device_id"}, {Name: "recipient_device_id"}},
			DoNothing: true,
		}).
		Create(offer).Error
}

func (p *PendingSessionStore) ListForRecipient(ctx context.Context, recipientDeviceID uuid.UUID) ([]domain.PendingSession, error) {
	var offers []domain.PendingSession
	if err := p.db.WithContext(ctx).
		Where("recipient_device_id = ?", recipientDeviceID).
		Order("created_at asc").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// GetForRecipient fetches an offer by id scoped to the recipient
// device, so one device cannot confirm another device's offer.
func (p *PendingSessionStore) GetForRecipient(ctx context.Context, id, recipientDeviceID uuid.UUID) (*domain.PendingSession, error) {
	var offer domain.PendingSession
	if err := p.db.WithContext(ctx).
		First(&offer, "id = ? AND recipient_device_id = ?", id, recipientDeviceID).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (p *PendingSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return p.db.WithContext(ctx).Delete(&domain.PendingSession{}, "id = ?", id).Error
}
