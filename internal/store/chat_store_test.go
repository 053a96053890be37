package store_test

import (
	"context"
	"fmt"
	"testing"

	"hushnet/internal/domain"
	"hushnet/internal/store"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setup(t *testing.T) *store.Store {
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
	return st
}

func TestCanonicalPairIsOrderInsensitive(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	x1, y1 := domain.CanonicalPair(a, b)
	x2, y2 := domain.CanonicalPair(b, a)
	if x1 != x2 || y1 != y2 {
		t.Fatalf("canonical pair depends on argument order")
	}

	// The smaller uuid always comes first.
	for i := 0; i < len(x1); i++ {
		if x1[i] < y1[i] {
			break
		}
		if x1[i] > y1[i] {
			t.Fatalf("pair not canonically ordered")
		}
	}

	// Identical ids pass through.
	sa, sb := domain.CanonicalPair(a, a)
	if sa != a || sb != a {
		t.Fatalf("identical pair mangled")
	}
}

func TestGetOrCreateDirectBothOrders(t *testing.T) {
	st := setup(t)

	alice := domain.User{Username: "alice"}
	bob := domain.User{Username: "bob"}
	if err := st.Users().Create(context.Background(), &alice); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if err := st.Users().Create(context.Background(), &bob); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	c1, err := st.Chats().GetOrCreateDirect(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	c2, err := st.Chats().GetOrCreateDirect(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("reversed: %v", err)
	}
	if c1.ID != c2.ID {
		t.Fatalf("expected one chat row, got %s and %s", c1.ID, c2.ID)
	}

	var count int64
	if err := st.DB.Model(&domain.Chat{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 chat, got %d", count)
	}
}

func TestListForUserResolvesPartner(t *testing.T) {
	st := setup(t)

	alice := domain.User{Username: "alice"}
	bob := domain.User{Username: "bob"}
	if err := st.Users().Create(context.Background(), &alice); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if err := st.Users().Create(context.Background(), &bob); err != nil {
		t.Fatalf("create bob: %v", err)
	}
	if _, err := st.Chats().GetOrCreateDirect(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("chat: %v", err)
	}

	views, err := st.Chats().ListForUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 chat view, got %d", len(views))
	}
	if views[0].PartnerUserID == nil || *views[0].PartnerUserID != bob.ID {
		t.Fatalf("wrong partner: %+v", views[0])
	}
	if views[0].PartnerUsername == nil || *views[0].PartnerUsername != "bob" {
		t.Fatalf("partner username not resolved: %+v", views[0])
	}

	// A user with no chats gets an empty list, not an error.
	carol := domain.User{Username: "carol"}
	if err := st.Users().Create(context.Background(), &carol); err != nil {
		t.Fatalf("create carol: %v", err)
	}
	none, err := st.Chats().ListForUser(context.Background(), carol.ID)
	if err != nil {
		t.Fatalf("empty list: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no chats, got %d", len(none))
	}
}
