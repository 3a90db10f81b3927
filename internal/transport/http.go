package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/domain/session"
)

// RecordService serves the data tables.
type RecordService interface {
	List(ctx context.Context, caller record.Caller, table string, opts record.ListOptions) ([]record.Record, error)
	Get(ctx context.Context, table, id string) (record.Record, error)
	Create(ctx context.Context, caller record.Caller, table string, in record.Record) (record.Record, error)
	Update(ctx context.Context, caller record.Caller, table, id string, patch record.Record) (record.Record, error)
	Delete(ctx context.Context, caller record.Caller, table, id string) (record.Record, error)
	Attach(ctx context.Context, caller record.Caller, up record.Upload) (record.Record, error)
	Download(ctx context.Context, id string) (record.Record, *record.Blob, error)
}

// AuthService handles accounts and sessions.
type AuthService interface {
	IdentityResolver
	Signup(ctx context.Context, req session.SignupRequest) (*session.Identity, error)
	Login(ctx context.Context, email, password string) (*session.Identity, error)
	Logout(ctx context.Context, token string) error
}

// ActivityService reads the shared activity log.
type ActivityService interface {
	Recent(ctx context.Context, opts activity.ListOptions) ([]activity.Activity, error)
}

// Feed upgrades a request to a realtime change subscription.
type Feed interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Limits configures per-client rate limiting. A zero Requests disables it.
type Limits struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits allows 100 API requests per client IP every 15 minutes.
var DefaultLimits = Limits{Requests: 100, Window: 15 * time.Minute}

// Deps are the services the API routes call into.
type Deps struct {
	Records  RecordService
	Auth     AuthService
	Activity ActivityService
	Feed     Feed
	DB       Pinger
	Logger   *slog.Logger
	Limits   Limits
}

// Server wires HTTP handlers.
type Server struct {
	records  RecordService
	auth     AuthService
	activity ActivityService
	feed     Feed
	db       Pinger
	logger   *slog.Logger
	now      func() time.Time
}

// NewServer creates the API router with middleware.
func NewServer(deps Deps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		records:  deps.Records,
		auth:     deps.Auth,
		activity: deps.Activity,
		feed:     deps.Feed,
		db:       deps.DB,
		logger:   logger,
		now:      time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		if deps.Limits.Requests > 0 {
			r.Use(httprate.Limit(
				deps.Limits.Requests,
				deps.Limits.Window,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
				}),
			))
		}

		r.Get("/health", srv.handleHealth)
		r.Post("/auth/login", srv.handleLogin)
		r.Post("/auth/signup", srv.handleSignup)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(deps.Auth))

			r.Get("/auth/session", srv.handleSession)
			r.Get("/auth/profile", srv.handleProfile)
			r.Post("/auth/logout", srv.handleLogout)

			r.Get("/data/{table}", srv.handleList)
			r.Post("/data/{table}", srv.handleCreate)
			r.Get("/data/{table}/{id}", srv.handleGet)
			r.Patch("/data/{table}/{id}", srv.handleUpdate)
			r.Delete("/data/{table}/{id}", srv.handleDelete)

			r.Post("/files", srv.handleUpload)
			r.Get("/files/{id}", srv.handleDownload)

			r.Get("/activity", srv.handleActivity)

			if deps.Feed != nil {
				r.Get("/realtime", srv.handleRealtime)
			}
		})
	})

	return r
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Database: "connected", Timestamp: s.now().UTC()}
	status := http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := activity.ListOptions{
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := parseLimit(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Limit = n
	}
	entries, err := s.activity.Recent(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	s.feed.Serve(w, r, id.UserID)
}

// fail writes err to the client, logging anything that is not the caller's fault.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeError(w, status, msg)
}
