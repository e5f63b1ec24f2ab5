package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/familydo/internal/directory"
	"github.com/dukerupert/familydo/internal/handler"
	"github.com/dukerupert/familydo/internal/metrics"
	"github.com/dukerupert/familydo/internal/middleware"
	ws "github.com/dukerupert/familydo/internal/websocket"
)

const (
	loginLimit  = 10
	loginWindow = time.Minute
)

type Server struct {
	hub         *ws.Hub
	authH       *handler.AuthHandler
	memberH     *handler.MemberHandler
	taskTypeH   *handler.TaskTypeHandler
	taskH       *handler.TaskHandler
	dashboardH  *handler.DashboardHandler
	rateLimiter *middleware.RateLimiter
	clientIP    func(*http.Request) string
	logger      *slog.Logger
}

func New(dir *directory.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	handlerLogger := logger.With("component", "handler")

	return &Server{
		hub:         hub,
		authH:       handler.NewAuthHandler(dir, handlerLogger),
		memberH:     handler.NewMemberHandler(dir, hub, handlerLogger),
		taskTypeH:   handler.NewTaskTypeHandler(dir, hub, handlerLogger),
		taskH:       handler.NewTaskHandler(dir, hub, handlerLogger),
		dashboardH:  handler.NewDashboardHandler(dir, handlerLogger),
		rateLimiter: middleware.NewRateLimiter(loginLimit, loginWindow),
		clientIP:    middleware.RealIP,
		logger:      logger,
	}
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// TrustProxies keys the login rate limit on the forwarded client address
// for requests arriving through ip's trusted proxies.
func (s *Server) TrustProxies(ip *middleware.ClientIP) {
	s.clientIP = ip.Resolve
}

// RunBackground starts housekeeping that lives as long as ctx.
func (s *Server) RunBackground(ctx context.Context) {
	go s.rateLimiter.RunCleanup(ctx, 5*time.Minute)
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	mux.Handle("POST /api/login", middleware.RateLimit(s.rateLimiter, s.clientIP)(http.HandlerFunc(s.authH.Login)))

	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)

	mux.HandleFunc("GET /api/task-types", s.taskTypeH.List)
	mux.HandleFunc("POST /api/task-types", s.taskTypeH.Create)
	mux.HandleFunc("GET /api/task-types/{id}", s.taskTypeH.Get)
	mux.HandleFunc("PUT /api/task-types/{id}", s.taskTypeH.Update)
	mux.HandleFunc("DELETE /api/task-types/{id}", s.taskTypeH.Delete)

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	mux.HandleFunc("GET /api/dashboard", s.dashboardH.Summary)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
