package store

import (
	"context"
	"time"

	"hushnet/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceStore struct{ db *gorm.DB }

func (s *Store) Devices() *DeviceStore { return &DeviceStore{db: s.DB} }

func (d *DeviceStore) Create(ctx context.Context, device *domain.Device) error {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	return d.db.WithContext(ctx).Create(device).Error
}

func (d *DeviceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	var device domain.Device
	if err := d.db.WithContext(ctx).First(&device, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

// GetByIdentityKey resolves a device from its base64 identity public
// key, exactly as presented in the X-Identity-Key header.
func (d *DeviceStore) GetByIdentityKey(ctx context.Context, identityPubkey string) (*domain.Device, error) {
	var device domain.Device
	if err := d.db.WithContext(ctx).First(&device, "identity_pubkey = ?", identityPubkey).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (d *DeviceStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Device, error) {
	var devices []domain.Device
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (d *DeviceStore) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	return d.db.WithContext(ctx).
		Model(&domain.Device{}).
		Where("id = ?", id).
		Update("last_seen", at).Error
}
