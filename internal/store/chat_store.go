package store

import (
	"context"

	"hushnet/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatStore struct{ db *gorm.DB }

func (s *Store) Chats() *ChatStore { return &ChatStore{db: s.DB} }

// GetOrCreateDirect returns the single direct chat for a user pair,
// creating it if absent. Callers pass the pair in any order; it is
// canonicalized here so both directions hit the same row. The insert
// races through the unique index on (user_a, user_b): on conflict the
// insert is a no-op and the re-select picks up the winner's row.
func (c *ChatStore) GetOrCreateDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error) {
	a, b := domain.CanonicalPair(userA, userB)

	chat := domain.Chat{
		ID:       uuid.New(),
		ChatType: domain.ChatTypeDirect,
		UserA:    &a,
		UserB:    &b,
	}
	if err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a"}, {Name: "user_b"}},
			DoNothing: true,
		}).
		Create(&chat).Error; err != nil {
		return nil, err
	}

	var out domain.Chat
	if err := c.db.WithContext(ctx).
		First(&out, "user_a = ? AND user_b = ?", a, b).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ListForUser returns the caller's direct chats with the partner's
// identity resolved, most recently updated first.
func (c *ChatStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.ChatView, error) {
	var views []domain.ChatView
	err := c.db.WithContext(ctx).Raw(`
		SELECT
			c.id,
			c.chat_type,
			CASE WHEN c.user_a = ? THEN c.user_b ELSE c.user_a END AS partner_user_id,
			(
				SELECT u.username FROM users u
				WHERE u.id = CASE WHEN c.user_a = ? THEN c.user_b ELSE c.user_a END
			) AS partner_username,
			c.name,
			c.last_message_id,
			c.updated_at
		FROM chats c
		WHERE c.chat_type = 'direct' AND (c.user_a = ? OR c.user_b = ?)
		ORDER BY c.updated_at DESC`,
		userID, userID, userID, userID).
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}
