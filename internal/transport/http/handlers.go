package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hushnet/internal/authgate"
	"hushnet/internal/domain"
	"hushnet/internal/dto"
	"hushnet/internal/handshake"
	"hushnet/internal/mailbox"
	"hushnet/internal/registry"
)

type handlers struct {
	registry  *registry.Service
	handshake *handshake.Coordinator
	mailbox   *mailbox.Relay
	log       *slog.Logger
}

func (h *handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the hushnet relay"})
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	user, err := h.registry.CreateUser(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *handlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.registry.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handlers) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req dto.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	req.UserID = userID

	device, err := h.registry.RegisterDevice(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

func (h *handlers) handleListDevices(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	devices, err := h.registry.ListDevices(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *handlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	device := mustDevice(r)
	var req dto.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := h.handshake.CreateOffers(r.Context(), device, req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *handlers) handleListPendingSessions(w http.ResponseWriter, r *http.Request) {
	device := mustDevice(r)
	offers, err := h.handshake.ListOffers(r.Context(), device)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	views := make([]dto.PendingSessionView, 0, len(offers))
	for _, o := range offers {
		views = append(views, dto.PendingSessionView{
			ID:                o.ID,
			SenderDeviceID:    o.SenderDeviceID,
			RecipientDeviceID: o.RecipientDeviceID,
			EphemeralPubkey:   o.EphemeralPubkey,
			SenderPrekeyPub:   o.SenderPrekeyPub,
			OtpkUsed:          o.OtpkUsed,
			Ciphertext:        o.Ciphertext,
			CreatedAt:         o.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

func (h *handlers) handleConfirmSession(w http.ResponseWriter, r *http.Request) {
	device := mustDevice(r)
	var req dto.ConfirmSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := h.handshake.Confirm(r.Context(), device, req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "session confirmed"})
}

func (h *handlers) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	device := mustDevice(r)
	var req dto.OutgoingMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := h.mailbox.Send(r.Context(), device, req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"success": "true"})
}

func (h *handlers) handlePendingMessages(w http.ResponseWriter, r *http.Request) {
	device := mustDevice(r)
	msgs, err := h.mailbox.FetchPending(r.Context(), device)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *handlers) handleListChats(w http.ResponseWriter, r *http.Request) {
	device := mustDevice(r)
	chats, err := h.registry.ListChats(r.Context(), device)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// mustDevice relies on the authgate middleware having run; routes that
// call it are always registered behind it.
func mustDevice(r *http.Request) *domain.Device {
	device, ok := authgate.DeviceFrom(r.Context())
	if !ok {
		panic("handler reached without authenticated device")
	}
	return device
}

// writeServiceError maps service sentinels to the error taxonomy.
// Anything unmapped is a transient store failure: logged with detail,
// surfaced as a generic 500 so internals never leak to the caller.
func (h *handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalidRequest),
		errors.Is(err, handshake.ErrInvalidRequest),
		errors.Is(err, mailbox.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrDuplicateUser):
		writeError(w, http.StatusConflict, "username already taken")
	case errors.Is(err, registry.ErrUnknownUser):
		writeError(w, http.StatusBadRequest, "user does not exist")
	case errors.Is(err, registry.ErrBadEnrollment):
		writeError(w, http.StatusUnauthorized, "wrong or expired enrollment token")
	case errors.Is(err, handshake.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, "pending session not found")
	default:
		h.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
