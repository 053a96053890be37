// Package authgate authenticates every request to a device identity.
//
// There is no session state: each request carries a base64 ed25519
// public key, a signature over the raw timestamp string, and the
// timestamp itself. The gate verifies the proof and resolves the device
// whose stored identity key matches.
package authgate

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"hushnet/internal/domain"
	"hushnet/internal/store"
)

// Request headers carrying the identity proof.
const (
	HeaderIdentityKey = "X-Identity-Key"
	HeaderSignature   = "X-Signature"
	HeaderTimestamp   = "X-Timestamp"
)

// MaxSkew is the anti-replay window. A timestamp exactly MaxSkew away
// from server time is still accepted; one second beyond is not.
const MaxSkew = 30 * time.Second

var (
	// ErrMalformed covers absent or undecodable credentials: bad
	// base64, wrong key or signature length, non-numeric timestamp.
	ErrMalformed = errors.New("malformed credentials")
	// ErrExpiredTimestamp means the proof is outside the anti-replay
	// window.
	ErrExpiredTimestamp = errors.New("expired timestamp")
	// ErrUnauthenticated covers both a signature mismatch and an
	// unknown identity key. The two are deliberately indistinguishable
	// so the endpoint cannot be used as a device-existence oracle.
	ErrUnauthenticated = errors.New("authentication failed")
)

// Credentials are the raw header values, untrusted and unparsed.
type Credentials struct {
	IdentityKey string
	Signature   string
	Timestamp   string
}

type Gate struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

func New(st *store.Store, log *slog.Logger) *Gate {
	return &Gate{store: st, log: log, now: time.Now}
}

// WithClock overrides the gate's clock. Tests use it to pin skew.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Authenticate verifies the identity proof and resolves the device.
// Read-only apart from a best-effort last_seen touch.
func (g *Gate) Authenticate(ctx context.Context, creds Credentials) (*domain.Device, error) {
	if creds.IdentityKey == "" || creds.Signature == "" || creds.Timestamp == "" {
		return nil, ErrMalformed
	}

	pub, err := base64.StdEncoding.DecodeString(creds.IdentityKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, ErrMalformed
	}
	sig, err := base64.StdEncoding.DecodeString(creds.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, ErrMalformed
	}
	ts, err := strconv.ParseInt(creds.Timestamp, 10, 64)
	if err != nil {
		return nil, ErrMalformed
	}

	skew := g.now().Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(MaxSkew/time.Second) {
		return nil, ErrExpiredTimestamp
	}

	// The signature covers the raw timestamp string bytes, not the
	// request body.
	if !ed25519.Verify(ed25519.PublicKey(pub), []byte(creds.Timestamp), sig) {
		return nil, ErrUnauthenticated
	}

	device, err := g.store.Devices().GetByIdentityKey(ctx, creds.IdentityKey)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		g.log.Error("authgate: device lookup failed", "error", err)
		return nil, err
	}

	if err := g.store.Devices().TouchLastSeen(ctx, device.ID, g.now().UTC()); err != nil {
		g.log.Warn("authgate: last_seen touch failed", "device_id", device.ID, "error", err)
	}

	return device, nil
}
