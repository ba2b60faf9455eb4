package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/calloway/hearthside/internal/auth"
	"github.com/calloway/hearthside/internal/authz"
	"github.com/calloway/hearthside/internal/blob"
	"github.com/calloway/hearthside/internal/email"
	"github.com/calloway/hearthside/internal/family"
	"github.com/calloway/hearthside/internal/handler"
	"github.com/calloway/hearthside/internal/invite"
	"github.com/calloway/hearthside/internal/middleware"
	"github.com/calloway/hearthside/internal/push"
	"github.com/calloway/hearthside/internal/store"
	ws "github.com/calloway/hearthside/internal/websocket"
)

// PushConfig holds the VAPID key pair. Empty keys disable push entirely.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	familyH      *handler.FamilyHandler
	inviteH      *handler.InviteHandler
	eventH       *handler.EventHandler
	medicationH  *handler.MedicationHandler
	documentH    *handler.DocumentHandler
	messageH     *handler.MessageHandler
	timeEntryH   *handler.TimeEntryHandler
	pushH        *handler.PushHandler
	sessionStore *store.SessionStore
	familyStore  *store.FamilyStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, blobStore *blob.Store, pushCfg PushConfig, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	familyStore := store.NewFamilyStore(db)
	sessionStore := store.NewSessionStore(db)
	inviteStore := store.NewInviteStore(db)
	eventStore := store.NewEventStore(db)
	medicationStore := store.NewMedicationStore(db)
	documentStore := store.NewDocumentStore(db)
	messageStore := store.NewMessageStore(db)
	timeEntryStore := store.NewTimeEntryStore(db)
	pushStore := store.NewPushStore(db)

	guard := authz.NewGuard(familyStore)

	inviteSvc := invite.NewService(inviteStore, familyStore, emailClient, logger)
	familyMgr := family.NewManager(familyStore, documentStore, inviteSvc, blobStore, logger)

	var pushSvc *push.Service
	var notifier *push.Notifier
	var pushH *handler.PushHandler
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		notifier = push.NewNotifier(pushSvc, familyStore, pushStore, logger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:           db,
		hub:          hub,
		familyH:      handler.NewFamilyHandler(familyMgr, familyStore, sessionStore, logger.With("component", "family_handler")),
		inviteH:      handler.NewInviteHandler(inviteSvc, logger.With("component", "invite_handler")),
		eventH:       handler.NewEventHandler(eventStore, guard, hub, logger.With("component", "event_handler")),
		medicationH:  handler.NewMedicationHandler(medicationStore, guard, hub, notifier, logger.With("component", "medication_handler")),
		documentH:    handler.NewDocumentHandler(documentStore, blobStore, guard, hub, logger.With("component", "document_handler")),
		messageH:     handler.NewMessageHandler(messageStore, guard, hub, notifier, logger.With("component", "message_handler")),
		timeEntryH:   handler.NewTimeEntryHandler(timeEntryStore, guard, hub, logger.With("component", "time_entry_handler")),
		pushH:        pushH,
		sessionStore: sessionStore,
		familyStore:  familyStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Authenticated routes
	authedMux := http.NewServeMux()
	s.registerAuthedRoutes(authedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.familyStore, s.logger.With("component", "auth_middleware"))
	outerMux.Handle("/", authMiddleware(authedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimitedHandler keys on the authenticated user so shared NATs don't
// starve each other. Guards the code-bearing endpoints against brute force.
func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		if userID := auth.UserID(r.Context()); userID != 0 {
			return "u" + strconv.FormatInt(userID, 10)
		}
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) familyScoped(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.RequireFamily(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerAuthedRoutes(mux *http.ServeMux) {
	// Family lifecycle and membership
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("GET /api/families", s.familyH.List)
	mux.HandleFunc("GET /api/families/{id}/role", s.familyH.Role)
	mux.HandleFunc("GET /api/families/{id}/members", s.familyH.Members)
	mux.HandleFunc("DELETE /api/families/{id}/members", s.familyH.RemoveMember)
	mux.HandleFunc("POST /api/families/{id}/leave", s.familyH.Leave)
	mux.HandleFunc("DELETE /api/families/{id}", s.familyH.Delete)
	mux.HandleFunc("POST /api/families/switch", s.familyH.Switch)

	// Invites
	mux.HandleFunc("POST /api/invites", s.rateLimitedHandler(s.inviteH.Issue))
	mux.HandleFunc("POST /api/invites/forward", s.rateLimitedHandler(s.inviteH.Forward))
	mux.HandleFunc("GET /api/invites", s.inviteH.List)
	mux.HandleFunc("DELETE /api/invites/{id}", s.inviteH.Revoke)
	mux.HandleFunc("POST /api/join", s.rateLimitedHandler(s.inviteH.Join))

	// Family-scoped resources require a resolved active family.
	scoped := s.familyScoped

	mux.HandleFunc("POST /api/events", scoped(s.eventH.Create))
	mux.HandleFunc("GET /api/events", scoped(s.eventH.List))
	mux.HandleFunc("GET /api/events/{id}", scoped(s.eventH.Get))
	mux.HandleFunc("PUT /api/events/{id}", scoped(s.eventH.Update))
	mux.HandleFunc("DELETE /api/events/{id}", scoped(s.eventH.Delete))

	mux.HandleFunc("POST /api/medications", scoped(s.medicationH.Create))
	mux.HandleFunc("GET /api/medications", scoped(s.medicationH.List))
	mux.HandleFunc("PUT /api/medications/{id}", scoped(s.medicationH.Update))
	mux.HandleFunc("DELETE /api/medications/{id}", scoped(s.medicationH.Delete))
	mux.HandleFunc("POST /api/medications/{id}/logs", scoped(s.medicationH.CreateLog))
	mux.HandleFunc("GET /api/medications/{id}/logs", scoped(s.medicationH.ListLogs))
	mux.HandleFunc("PUT /api/medication-logs/{id}", scoped(s.medicationH.UpdateLog))
	mux.HandleFunc("DELETE /api/medication-logs/{id}", scoped(s.medicationH.DeleteLog))

	mux.HandleFunc("POST /api/documents", scoped(s.documentH.Upload))
	mux.HandleFunc("GET /api/documents", scoped(s.documentH.List))
	mux.HandleFunc("GET /api/documents/{id}/download", scoped(s.documentH.Download))
	mux.HandleFunc("DELETE /api/documents/{id}", scoped(s.documentH.Delete))

	mux.HandleFunc("POST /api/messages", scoped(s.messageH.Create))
	mux.HandleFunc("GET /api/messages", scoped(s.messageH.List))
	mux.HandleFunc("PUT /api/messages/{id}", scoped(s.messageH.Update))
	mux.HandleFunc("DELETE /api/messages/{id}", scoped(s.messageH.Delete))

	mux.HandleFunc("POST /api/time-entries", scoped(s.timeEntryH.Create))
	mux.HandleFunc("GET /api/time-entries", scoped(s.timeEntryH.List))
	mux.HandleFunc("PUT /api/time-entries/{id}", scoped(s.timeEntryH.Update))
	mux.HandleFunc("DELETE /api/time-entries/{id}", scoped(s.timeEntryH.Delete))

	mux.HandleFunc("PUT /api/pay-rates", scoped(s.timeEntryH.SetPayRate))
	mux.HandleFunc("GET /api/pay-rates", scoped(s.timeEntryH.ListPayRates))

	mux.HandleFunc("GET /ws", scoped(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"))))

	// Push subscriptions are user-scoped, not family-scoped.
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}
}
