package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/askmate/apiserver/config"
	"github.com/askmate/apiserver/internal/db"
	"github.com/askmate/apiserver/internal/handlers"
	"github.com/askmate/apiserver/internal/mq"
	"github.com/askmate/apiserver/internal/services"
	"github.com/askmate/apiserver/internal/storage"
	"github.com/askmate/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and its shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
}

// New constructs a Server with basic middleware and all routes wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	broker, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	studentRepo := store.NewStudentRepository(dbConn)
	lecturerRepo := store.NewLecturerRepository(dbConn)
	helperRepo := store.NewHelperRepository(dbConn)
	adminRepo := store.NewAdminRepository(dbConn)
	yearRepo := store.NewYearRepository(dbConn)
	semesterRepo := store.NewSemesterRepository(dbConn)
	moduleRepo := store.NewModuleRepository(dbConn)
	resourceRepo := store.NewResourceRepository(dbConn)
	eventRepo := store.NewModerationEventRepository(dbConn)
	questionRepo := store.NewQuestionRepository(dbConn)
	answerRepo := store.NewAnswerRepository(dbConn)

	identityService := services.NewIdentityService(studentRepo, lecturerRepo, helperRepo, adminRepo)
	academicService := services.NewAcademicService(yearRepo, semesterRepo, moduleRepo)
	resourceService := services.NewResourceService(resourceRepo, eventRepo, moduleRepo, objects, broker, cfg.MQ.Channel)
	questionService := services.NewQuestionService(questionRepo, answerRepo, helperRepo, moduleRepo)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, identityService, jwtSecret)
		})
		r.Route("/resources", func(r chi.Router) {
			handlers.ResourceRouter(r, resourceService, authMiddleware)
		})
		r.Route("/academic", func(r chi.Router) {
			handlers.AcademicCatalogRouter(r, academicService)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Route("/academic", func(r chi.Router) {
				handlers.AcademicAdminRouter(r, academicService, authMiddleware)
			})
			r.Group(func(r chi.Router) {
				handlers.AdminRouter(r, identityService, authMiddleware)
			})
		})
		r.Route("/user", func(r chi.Router) {
			handlers.ProfileRouter(r, identityService, authMiddleware)
		})
		r.Route("/questions", func(r chi.Router) {
			handlers.QuestionRouter(r, questionService, authMiddleware)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	return s.httpServer.Close()
}
