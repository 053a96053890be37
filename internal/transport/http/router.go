package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hushnet/internal/authgate"
	"hushnet/internal/handshake"
	"hushnet/internal/mailbox"
	obsmw "hushnet/internal/observability/middleware"
	"hushnet/internal/realtime"
	"hushnet/internal/registry"
)

type Options struct {
	CORSOrigins     string
	RateLimitPerMin int
}

func NewRouter(
	gate *authgate.Gate,
	reg *registry.Service,
	coord *handshake.Coordinator,
	relay *mailbox.Relay,
	ws *realtime.WSHandler,
	log *slog.Logger,
	opts Options,
) http.Handler {
	h := &handlers{registry: reg, handshake: coord, mailbox: relay, log: log}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(obsmw.WithRequestAndTrace(log))
	r.Use(obsmw.WithMetrics)

	if opts.RateLimitPerMin > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimitPerMin, 1*time.Minute))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsIfSet(strings.Split(opts.CORSOrigins, ",")),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id", authgate.HeaderIdentityKey, authgate.HeaderSignature, authgate.HeaderTimestamp},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/users/create", h.handleCreateUser)
	r.Get("/users", h.handleListUsers)
	r.Post("/users/{id}/devices", h.handleRegisterDevice)
	r.Get("/users/{id}/devices", h.handleListDevices)

	// Realtime stream; the timeout middleware would kill long-lived
	// connections, so it only wraps the request/response routes below.
	r.Get("/ws/{user_id}", ws.ServeHTTP)

	r.Group(func(pr chi.Router) {
		pr.Use(chimw.Timeout(30 * time.Second))
		pr.Use(authgate.Middleware(gate))

		pr.Post("/sessions", h.handleCreateSession)
		pr.Get("/sessions/pending", h.handleListPendingSessions)
		pr.Post("/sessions/confirm", h.handleConfirmSession)
		pr.Post("/messages", h.handleSendMessage)
		pr.Get("/messages/pending", h.handlePendingMessages)
		pr.Get("/chats", h.handleListChats)
	})

	return r
}

func originsIfSet(in []string) []string {
	out := []string{}
	for _, o := range in {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
