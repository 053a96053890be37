// Package mailbox stores and forwards encrypted message payloads, one
// row per recipient device.
package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hushnet/internal/domain"
	"hushnet/internal/dto"
	"hushnet/internal/observability/metrics"
	"hushnet/internal/store"
)

var ErrInvalidRequest = errors.New("invalid request")

type Relay struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

func New(st *store.Store, log *slog.Logger) *Relay {
	return &Relay{store: st, log: log, now: time.Now}
}

// Send fans one logical message out to the recipient user's devices,
// one row per payload. Fan-out is deliberately not transactional:
// delivery is best-effort per device, and one device's failure must not
// withhold the copies already written for the others. The first insert
// error aborts the loop and surfaces as an error so the caller retries
// the whole logical message; rows committed before the failure stay,
// and FetchPending happily hands out duplicates as separate deliveries.
func (r *Relay) Send(ctx context.Context, sender *domain.Device, msg dto.OutgoingMessage) error {
	if msg.LogicalMsgID == "" || len(msg.Payloads) == 0 {
		return fmt.Errorf("%w: missing logical message id or payloads", ErrInvalidRequest)
	}
	for _, p := range msg.Payloads {
		if p.Ciphertext == "" || len(p.Header) == 0 || !json.Valid(p.Header) {
			return fmt.Errorf("%w: payload missing header or ciphertext", ErrInvalidRequest)
		}
	}

	for _, p := range msg.Payloads {
		row := domain.Message{
			LogicalMsgID: msg.LogicalMsgID,
			ChatID:       msg.ChatID,
			FromUserID:   sender.UserID,
			FromDeviceID: sender.ID,
			ToUserID:     msg.ToUserID,
			ToDeviceID:   p.ToDeviceID,
			Header:       domain.JSON(append([]byte(nil), p.Header...)),
			Ciphertext:   p.Ciphertext,
		}
		if err := r.store.Messages().Create(ctx, &row); err != nil {
			r.log.Error("mailbox: fan-out insert failed",
				"logical_msg_id", msg.LogicalMsgID,
				"to_device_id", p.ToDeviceID,
				"error", err,
			)
			return err
		}
		metrics.MessagesFannedOutTotal.Inc()
	}
	return nil
}

// FetchPending returns every undelivered row addressed to the device in
// FIFO order and marks them delivered in the same call. Read implies
// acknowledge: a client that crashes between fetching and processing
// loses those messages from the queue. Known at-most-once-after-fetch
// contract, kept for compatibility.
func (r *Relay) FetchPending(ctx context.Context, device *domain.Device) ([]dto.MessageView, error) {
	msgs, err := r.store.Messages().PendingForDevice(ctx, device.ID)
	if err != nil {
		return nil, err
	}
	if err := r.store.Messages().MarkDeliveredForDevice(ctx, device.ID, r.now().UTC()); err != nil {
		return nil, err
	}

	views := make([]dto.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, dto.MessageView{
			ID:           m.ID,
			LogicalMsgID: m.LogicalMsgID,
			ChatID:       m.ChatID,
			FromUserID:   m.FromUserID,
			FromDeviceID: m.FromDeviceID,
			Header:       json.RawMessage(append([]byte(nil), m.Header...)),
			Ciphertext:   m.Ciphertext,
			CreatedAt:    m.CreatedAt,
		})
	}
	return views, nil
}
