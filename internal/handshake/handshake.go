// Package handshake brokers the asynchronous key-exchange between two
// devices: the initiator leaves a pending offer, the recipient picks it
// up later and confirms, which materializes the session and its chat.
package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hushnet/internal/domain"
	"hushnet/internal/dto"
	"hushnet/internal/store"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	// ErrOfferNotFound also covers an offer owned by another device;
	// a caller can never learn about offers that are not theirs.
	ErrOfferNotFound = errors.New("pending session not found")
)

type Coordinator struct {
	store *store.Store
	log   *slog.Logger
}

func New(st *store.Store, log *slog.Logger) *Coordinator {
	return &Coordinator{store: st, log: log}
}

// CreateOffers enqueues one pending offer per entry. A repeat of an
// offer for a (sender, recipient) device pair that is already pending
// is an idempotent no-op, not an error.
func (c *Coordinator) CreateOffers(ctx context.Context, sender *domain.Device, req dto.CreateSessionRequest) error {
	if sender.UserID == req.RecipientUserID {
		return fmt.Errorf("%w: cannot create session with self", ErrInvalidRequest)
	}
	if len(req.SessionsInit) == 0 {
		return fmt.Errorf("%w: no session inits", ErrInvalidRequest)
	}
	for _, init := range req.SessionsInit {
		if init.RecipientDeviceID == sender.ID {
			return fmt.Errorf("%w: cannot create session with self", ErrInvalidRequest)
		}
		if init.EphemeralPubkey == "" || init.Ciphertext == "" {
			return fmt.Errorf("%w: missing key material", ErrInvalidRequest)
		}
	}

	return c.store.WithTx(ctx, func(tx *store.Store) error {
		for _, init := range req.SessionsInit {
			offer := domain.PendingSession{
				SenderDeviceID:    sender.ID,
				RecipientDeviceID: init.RecipientDeviceID,
				EphemeralPubkey:   init.EphemeralPubkey,
				SenderPrekeyPub:   init.SenderPrekeyPub,
				OtpkUsed:          init.OtpkUsed,
				Ciphertext:        init.Ciphertext,
			}
			if err := tx.PendingSessions().Create(ctx, &offer); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListOffers returns every offer addressed to the caller's device.
// An empty slice is a normal result.
func (c *Coordinator) ListOffers(ctx context.Context, device *domain.Device) ([]domain.PendingSession, error) {
	return c.store.PendingSessions().ListForRecipient(ctx, device.ID)
}

// Confirm finalizes an offer the caller's device received. The whole
// sequence runs in one transaction: fetch the offer scoped to the
// caller, derive the canonical chat for the two owning users, upsert
// the session for the device pair, delete the consumed offer. A crash
// can never leave a session without its offer deleted or vice versa.
func (c *Coordinator) Confirm(ctx context.Context, caller *domain.Device, req dto.ConfirmSessionRequest) error {
	return c.store.WithTx(ctx, func(tx *store.Store) error {
		if _, err := tx.PendingSessions().GetForRecipient(ctx, req.PendingSessionID, caller.ID); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return ErrOfferNotFound
			}
			return err
		}

		sender, err := tx.Devices().GetByID(ctx, req.SenderDeviceID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return ErrOfferNotFound
			}
			return err
		}
		receiver, err := tx.Devices().GetByID(ctx, req.ReceiverDeviceID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return ErrOfferNotFound
			}
			return err
		}

		chat, err := tx.Chats().GetOrCreateDirect(ctx, sender.UserID, receiver.UserID)
		if err != nil {
			return err
		}

		session := domain.Session{
			ChatID:           chat.ID,
			SenderDeviceID:   req.SenderDeviceID,
			ReceiverDeviceID: req.ReceiverDeviceID,
		}
		if err := tx.Sessions().Upsert(ctx, &session); err != nil {
			return err
		}

		return tx.PendingSessions().Delete(ctx, req.PendingSessionID)
	})
}
