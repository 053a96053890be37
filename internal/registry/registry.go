// Package registry handles user and device registration: the pieces a
// device needs to exist before it can authenticate at all.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"hushnet/internal/domain"
	"hushnet/internal/dto"
	"hushnet/internal/enroll"
	"hushnet/internal/store"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrDuplicateUser  = errors.New("username already taken")
	ErrUnknownUser    = errors.New("user does not exist")
	ErrBadEnrollment  = errors.New("wrong or expired enrollment token")
)

type Service struct {
	store  *store.Store
	tokens *enroll.Tokens
	log    *slog.Logger
}

func New(st *store.Store, tokens *enroll.Tokens, log *slog.Logger) *Service {
	return &Service{store: st, tokens: tokens, log: log}
}

func (s *Service) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, fmt.Errorf("%w: empty username", ErrInvalidRequest)
	}
	user := domain.User{Username: req.Username}
	if err := s.store.Users().Create(ctx, &user); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.Users().List(ctx)
}

// RegisterDevice enrolls a device under a user. The enrollment token is
// single-use: it must verify, its subject must match the target user,
// and it must not appear in used_tokens. The device row and the token
// burn happen in one transaction.
func (s *Service) RegisterDevice(ctx context.Context, req dto.RegisterDeviceRequest) (*domain.Device, error) {
	if req.IdentityPubkey == "" || req.SignedPrekey.Key == "" || req.SignedPrekey.Signature == "" {
		return nil, fmt.Errorf("%w: missing key material", ErrInvalidRequest)
	}

	tokenUser, err := s.tokens.Verify(req.EnrollmentToken)
	if err != nil || tokenUser != req.UserID {
		return nil, ErrBadEnrollment
	}

	prekeys := make([]string, 0, len(req.OneTimePrekeys))
	for _, k := range req.OneTimePrekeys {
		if k.Key == "" {
			return nil, fmt.Errorf("%w: one-time prekey missing key", ErrInvalidRequest)
		}
		prekeys = append(prekeys, k.Key)
	}
	prekeysJSON, err := json.Marshal(prekeys)
	if err != nil {
		return nil, err
	}

	device := domain.Device{
		UserID:          req.UserID,
		IdentityPubkey:  req.IdentityPubkey,
		SignedPrekeyPub: req.SignedPrekey.Key,
		SignedPrekeySig: req.SignedPrekey.Signature,
		OneTimePrekeys:  domain.JSON(prekeysJSON),
	}
	if req.DeviceLabel != "" {
		device.DeviceLabel = &req.DeviceLabel
	}
	if req.PushToken != "" {
		device.PushToken = &req.PushToken
	}

	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		used, err := tx.UsedTokens().Exists(ctx, req.EnrollmentToken)
		if err != nil {
			return err
		}
		if used {
			return ErrBadEnrollment
		}
		if _, err := tx.Users().GetByID(ctx, req.UserID); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return ErrUnknownUser
			}
			return err
		}
		if err := tx.Devices().Create(ctx, &device); err != nil {
			return err
		}
		return tx.UsedTokens().Add(ctx, req.EnrollmentToken)
	})
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (s *Service) ListDevices(ctx context.Context, userID uuid.UUID) ([]domain.Device, error) {
	return s.store.Devices().GetByUserID(ctx, userID)
}

func (s *Service) ListChats(ctx context.Context, device *domain.Device) ([]domain.ChatView, error) {
	return s.store.Chats().ListForUser(ctx, device.UserID)
}

// isUniqueViolation matches unique-constraint failures across the
// postgres and sqlite drivers; gorm has no portable sentinel for it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
