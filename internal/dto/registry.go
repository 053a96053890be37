package dto

import (
	"github.com/google/uuid"

	"hushnet/internal/domain"
)

type CreateUserRequest struct {
	Username string `json:"username"`
}

type RegisterDeviceRequest struct {
	UserID          uuid.UUID              `json:"user_id"`
	IdentityPubkey  string                 `json:"identity_pubkey"`
	SignedPrekey    domain.SignedPreKey    `json:"signed_prekey"`
	OneTimePrekeys  []domain.OneTimePreKey `json:"one_time_prekeys"`
	DeviceLabel     string                 `json:"device_label"`
	PushToken       string                 `json:"push_token"`
	EnrollmentToken string                 `json:"enrollment_token"`
}
