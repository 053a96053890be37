package handshake_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"hushnet/internal/domain"
	"hushnet/internal/dto"
	"hushnet/internal/handshake"
	"hushnet/internal/store"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*handshake.Coordinator, *store.Store) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	st := store.New(db)
	if err := st.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return handshake.New(st, slog.Default()), st
}

func newDevice(t *testing.T, st *store.Store, username string) *domain.Device {
	t.Helper()

	user := domain.User{Username: username}
	if err := st.Users().Create(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	device := domain.Device{
		UserID:          user.ID,
		IdentityPubkey:  "ik-" + uuid.NewString(),
		SignedPrekeyPub: "spk",
		SignedPrekeySig: "sig",
		OneTimePrekeys:  domain.JSON(`[]`),
	}
	if err := st.Devices().Create(context.Background(), &device); err != nil {
		t.Fatalf("create device: %v", err)
	}
	return &device
}

func offerReq(recipient *domain.Device, ephemeral string) dto.CreateSessionRequest {
	return dto.CreateSessionRequest{
		RecipientUserID: recipient.UserID,
		SessionsInit: []dto.SessionInit{{
			RecipientDeviceID: recipient.ID,
			EphemeralPubkey:   ephemeral,
			SenderPrekeyPub:   "spk-pub",
			OtpkUsed:          "otpk-1",
			Ciphertext:        "b64-ciphertext",
		}},
	}
}

func TestCreateOffersRejectsSelf(t *testing.T) {
	coord, st := setup(t)
	a := newDevice(t, st, "alice")

	err := coord.CreateOffers(context.Background(), a, dto.CreateSessionRequest{
		RecipientUserID: a.UserID,
		SessionsInit:    []dto.SessionInit{{RecipientDeviceID: a.ID, EphemeralPubkey: "e", Ciphertext: "c"}},
	})
	if !errors.Is(err, handshake.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestDuplicateOfferIsIdempotent(t *testing.T) {
	coord, st := setup(t)
	a := newDevice(t, st, "alice")
	b := newDevice(t, st, "bob")

	req := offerReq(b, "E1")
	if err := coord.CreateOffers(context.Background(), a, req); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	if err := coord.CreateOffers(context.Background(), a, req); err != nil {
		t.Fatalf("duplicate offer should be a no-op, got %v", err)
	}

	offers, err := coord.ListOffers(context.Background(), b)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("expected exactly one pending offer, got %d", len(offers))
	}
	if offers[0].EphemeralPubkey != "E1" {
		t.Fatalf("unexpected ephemeral key %q", offers[0].EphemeralPubkey)
	}
}

func TestListOffersEmptyIsNotError(t *testing.T) {
	coord, st := setup(t)
	b := newDevice(t, st, "bob")

	offers, err := coord.ListOffers(context.Background(), b)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	if len(offers) != 0 {
		t.Fatalf("expected no offers, got %d", len(offers))
	}
}

func TestConfirmConsumesOffer(t *testing.T) {
	coord, st := setup(t)
	a := newDevice(t, st, "alice")
	b := newDevice(t, st, "bob")

	if err := coord.CreateOffers(context.Background(), a, offerReq(b, "E1")); err != nil {
		t.Fatalf("offer: %v", err)
	}
	offers, _ := coord.ListOffers(context.Background(), b)
	if len(offers) != 1 {
		t.Fatalf("expected one offer, got %d", len(offers))
	}

	confirm := dto.ConfirmSessionRequest{
		PendingSessionID: offers[0].ID,
		SenderDeviceID:   a.ID,
		ReceiverDeviceID: b.ID,
	}
	if err := coord.Confirm(context.Background(), b, confirm); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	after, _ := coord.ListOffers(context.Background(), b)
	if len(after) != 0 {
		t.Fatalf("offer should be consumed, still %d pending", len(after))
	}

	// Session exists for the pair.
	if _, err := st.Sessions().GetByDevicePair(context.Background(), a.ID, b.ID); err != nil {
		t.Fatalf("session missing after confirm: %v", err)
	}

	// Retrying the same confirm hits not-found.
	if err := coord.Confirm(context.Background(), b, confirm); !errors.Is(err, handshake.ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound on retry, got %v", err)
	}
}

func TestConfirmScopedToRecipientDevice(t *testing.T) {
	coord, st := setup(t)
	a := newDevice(t, st, "alice")
	b := newDevice(t, st, "bob")
	c := newDevice(t, st, "carol")

	if err := coord.CreateOffers(context.Background(), a, offerReq(b, "E1")); err != nil {
		t.Fatalf("offer: %v", err)
	}
	offers, _ := coord.ListOffers(context.Background(), b)

	err := coord.Confirm(context.Background(), c, dto.ConfirmSessionRequest{
		PendingSessionID: offers[0].ID,
		SenderDeviceID:   a.ID,
		ReceiverDeviceID: c.ID,
	})
	if !errors.Is(err, handshake.ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound for foreign device, got %v", err)
	}
}

func TestConfirmBothDirectionsShareOneChat(t *testing.T) {
	coord, st := setup(t)
	a := newDevice(t, st, "alice")
	b := newDevice(t, st, "bob")

	if err := coord.CreateOffers(context.Background(), a, offerReq(b, "Ea")); err != nil {
		t.Fatalf("offer a->b: %v", err)
	}
	if err := coord.CreateOffers(context.Background(), b, offerReq(a, "Eb")); err != nil {
		t.Fatalf("offer b->a: %v", err)
	}

	offersB, _ := coord.ListOffers(context.Background(), b)
	if err := coord.Confirm(context.Background(), b, dto.ConfirmSessionRequest{
		PendingSessionID: offersB[0].ID,
		SenderDeviceID:   a.ID,
		ReceiverDeviceID: b.ID,
	}); err != nil {
		t.Fatalf("confirm a->b: %v", err)
	}

	offersA, _ := coord.ListOffers(context.Background(), a)
	if err := coord.Confirm(context.Background(), a, dto.ConfirmSessionRequest{
		PendingSessionID: offersA[0].ID,
		SenderDeviceID:   b.ID,
		ReceiverDeviceID: a.ID,
	}); err != nil {
		t.Fatalf("confirm b->a: %v", err)
	}

	sessAB, err := st.Sessions().GetByDevicePair(context.Background(), a.ID, b.ID)
	if err != nil {
		t.Fatalf("session a->b: %v", err)
	}
	sessBA, err := st.Sessions().GetByDevicePair(context.Background(), b.ID, a.ID)
	if err != nil {
		t.Fatalf("session b->a: %v", err)
	}
	if sessAB.ChatID != sessBA.ChatID {
		t.Fatalf("expected one canonical chat, got %s and %s", sessAB.ChatID, sessBA.ChatID)
	}

	var chatCount int64
	if err := st.DB.Model(&domain.Chat{}).Count(&chatCount).Error; err != nil {
		t.Fatalf("count chats: %v", err)
	}
	if chatCount != 1 {
		t.Fatalf("expected exactly one chat row, got %d", chatCount)
	}
}

func TestReconfirmRefreshesExistingSession(t *testing.T) {
	coord, st := setup(t)
	a := newDevice(t, st, "alice")
	b := newDevice(t, st, "bob")

	if err := coord.CreateOffers(context.Background(), a, offerReq(b, "E1")); err != nil {
		t.Fatalf("offer: %v", err)
	}
	offers, _ := coord.ListOffers(context.Background(), b)
	if err := coord.Confirm(context.Background(), b, dto.ConfirmSessionRequest{
		PendingSessionID: offers[0].ID,
		SenderDeviceID:   a.ID,
		ReceiverDeviceID: b.ID,
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	first, _ := st.Sessions().GetByDevicePair(context.Background(), a.ID, b.ID)

	// A second offer for the same pair confirms onto the same session.
	if err := coord.CreateOffers(context.Background(), a, offerReq(b, "E2")); err != nil {
		t.Fatalf("second offer: %v", err)
	}
	offers, _ = coord.ListOffers(context.Background(), b)
	if err := coord.Confirm(context.Background(), b, dto.ConfirmSessionRequest{
		PendingSessionID: offers[0].ID,
		SenderDeviceID:   a.ID,
		ReceiverDeviceID: b.ID,
	}); err != nil {
		t.Fatalf("reconfirm: %v", err)
	}
	second, _ := st.Sessions().GetByDevicePair(context.Background(), a.ID, b.ID)
	if first.ID != second.ID {
		t.Fatalf("reconfirm must not replace the session row")
	}

	var sessionCount int64
	if err := st.DB.Model(&domain.Session{}).Count(&sessionCount).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessionCount != 1 {
		t.Fatalf("expected one session row, got %d", sessionCount)
	}
}
