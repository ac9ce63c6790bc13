package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"orgflow/internal/domain/attendance"
	"orgflow/internal/domain/balance"
	"orgflow/internal/domain/directory"
	"orgflow/internal/domain/effects"
	"orgflow/internal/domain/expense"
	"orgflow/internal/domain/hierarchy"
	"orgflow/internal/domain/leave"
	"orgflow/internal/domain/notifications"
	"orgflow/internal/domain/overtime"
	"orgflow/internal/domain/shifts"
	"orgflow/internal/platform/config"
	"orgflow/internal/platform/db"
	"orgflow/internal/platform/email"
	"orgflow/internal/platform/jobs"
	"orgflow/internal/platform/metrics"
	"orgflow/internal/transport/http/api"
	approvalshandler "orgflow/internal/transport/http/handlers/approvals"
	attendancehandler "orgflow/internal/transport/http/handlers/attendance"
	expensehandler "orgflow/internal/transport/http/handlers/expense"
	leavehandler "orgflow/internal/transport/http/handlers/leave"
	notificationshandler "orgflow/internal/transport/http/handlers/notifications"
	overtimehandler "orgflow/internal/transport/http/handlers/overtime"
	shiftshandler "orgflow/internal/transport/http/handlers/shifts"
	"orgflow/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	Pool     *pgxpool.Pool
	Router   http.Handler
	Jobs     *jobs.Service
	Detector *attendance.Detector
	Metrics  *metrics.Collector
}

// New wires stores, services, and handlers into a ready router. It
// does not listen; Run and the integration tests do that.
func New(cfg config.Config, pool *pgxpool.Pool) *App {
	logger := slog.Default()

	directoryStore := directory.NewStore(pool)
	resolver := hierarchy.NewResolver(directoryStore)

	leaveStore := leave.NewStore(pool)
	balanceSvc := balance.NewService(balance.NewStore(pool))
	shiftsStore := shifts.NewStore(pool)
	notifSvc := notifications.New(notifications.NewStore(pool), email.New(cfg))
	notifSvc.DefaultFrom = cfg.EmailFrom

	dispatcher := effects.NewDispatcher(balanceSvc, shiftsStore, notifSvc, directoryStore, logger)
	leaveSvc := leave.NewService(leaveStore, resolver, directoryStore, dispatcher)
	expenseSvc := expense.NewService(expense.NewStore(pool), resolver, directoryStore)
	expenseSvc.Notifier = notifSvc
	overtimeSvc := overtime.NewService(overtime.NewStore(pool), resolver, directoryStore)

	attendanceStore := attendance.NewStore(pool)
	detector := attendance.NewDetector(attendanceStore, shiftsStore, leaveStore, notifSvc, directoryStore, logger)

	jobsSvc := jobs.New(pool, cfg)
	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recover)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		leavehandler.NewHandler(leaveSvc, balanceSvc).RegisterRoutes(r)
		expensehandler.NewHandler(expenseSvc).RegisterRoutes(r)
		overtimehandler.NewHandler(overtimeSvc).RegisterRoutes(r)
		approvalshandler.NewHandler(leaveSvc, expenseSvc, overtimeSvc, resolver).RegisterRoutes(r)
		attendancehandler.NewHandler(detector, attendanceStore, jobsSvc).RegisterRoutes(r)
		shiftshandler.NewHandler(shiftsStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notifSvc).RegisterRoutes(r)
	})

	return &App{
		Config:   cfg,
		Pool:     pool,
		Router:   router,
		Jobs:     jobsSvc,
		Detector: detector,
		Metrics:  collector,
	}
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	app := New(cfg, pool)
	app.Jobs.Start(ctx, jobs.RunnerFunc(func(ctx context.Context) (any, error) {
		return app.Detector.RunYesterday(ctx)
	}))

	log.Printf("orgflow server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
