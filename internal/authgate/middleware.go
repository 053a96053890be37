package authgate

import (
	"context"
	"errors"
	"net/http"

	"hushnet/internal/domain"
)

type ctxKey struct{}

// DeviceFrom returns the device resolved by Middleware for this request.
func DeviceFrom(ctx context.Context) (*domain.Device, bool) {
	d, ok := ctx.Value(ctxKey{}).(*domain.Device)
	return d, ok
}

// Middleware is the authenticate-then-call adapter: it runs the gate
// against the request headers and either stashes the device in the
// context or terminates the request with the mapped status.
func Middleware(gate *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			device, err := gate.Authenticate(r.Context(), Credentials{
				IdentityKey: r.Header.Get(HeaderIdentityKey),
				Signature:   r.Header.Get(HeaderSignature),
				Timestamp:   r.Header.Get(HeaderTimestamp),
			})
			if err != nil {
				http.Error(w, http.StatusText(statusFor(err)), statusFor(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, device)))
		})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, ErrExpiredTimestamp), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
