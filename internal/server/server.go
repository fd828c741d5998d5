package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/accuracy"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/auth"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/completion"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/config"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/db"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/distance"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/gesture"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/heatmap"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/logging"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/screenshot"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/stream"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/timer"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/touchcount"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// QuickControlModal is the modal driven by the top-edge drag gesture.
const QuickControlModal = "quickControl"

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     db.Querier
	Redis  *redis.Client
	Store  kv.Store
	Stream *stream.Hub
	Log    *zap.Logger

	Distance    *distance.Registry
	Accuracy    *accuracy.Tracker
	Touches     *touchcount.Tracker
	Heatmap     *heatmap.Tracker
	Screenshots *screenshot.Tracker
	Completion  *completion.Tracker
	Timer       *timer.Timer
	Modals      *gesture.ModalStore
	Drag        *gesture.DragHandler
	Swipe       *gesture.SwipeSheet
}

// NewServer wires every tracker onto the store selected by
// cfg.StoreBackend. pg and redisClient may be nil when the backend does
// not need them; a nil redisClient also keeps stream delivery in process.
func NewServer(cfg config.Config, pg db.Querier, redisClient *redis.Client, log *zap.Logger) (*Server, error) {
	log = logging.OrNop(log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := newStore(ctx, cfg, pg, redisClient)
	if err != nil {
		return nil, err
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient, log.Named("stream"))
	modals := gesture.NewModalStore()

	s := &Server{
		App:         app,
		Cfg:         cfg,
		DB:          pg,
		Redis:       redisClient,
		Store:       store,
		Stream:      hub,
		Log:         log,
		Distance:    distance.NewRegistry(store, cfg.DeviceDPI, hub, log.Named("distance")),
		Accuracy:    accuracy.NewTracker(store, accuracy.Options{Radius: cfg.TouchAreaRadius, Logger: log.Named("accuracy")}),
		Heatmap:     heatmap.NewTracker(store, log.Named("heatmap")),
		Screenshots: screenshot.NewTracker(store, log.Named("screenshot")),
		Completion:  completion.NewTracker(store, log.Named("completion"), nil),
		Timer:       timer.New(store, timer.Options{Logger: log.Named("timer")}),
		Modals:      modals,
		Drag:        gesture.NewDragHandler(modals.Binding(QuickControlModal)),
		Swipe:       gesture.NewSwipeSheet(nil, gesture.SwipeOptions{}),
	}
	s.Touches = touchcount.NewTracker(ctx, store, touchcount.Options{
		OnTouchEnd:    s.broadcastTouches,
		OnTouchCancel: s.broadcastTouches,
		Logger:        log.Named("touchcount"),
	})

	if err := s.Heatmap.Load(ctx); err != nil {
		log.Warn("heatmap not restored", zap.Error(err))
	}
	if err := s.Screenshots.Load(ctx); err != nil {
		log.Warn("screenshots not restored", zap.Error(err))
	}

	registerRoutes(s)
	log.Info("server ready", zap.String("store", backendName(cfg.StoreBackend)), zap.Bool("redis_stream", redisClient != nil))
	return s, nil
}

// Close stops background work. It does not close the database or Redis
// clients, which belong to the caller.
func (s *Server) Close() error {
	s.Timer.Close()
	return s.Stream.Close()
}

func newStore(ctx context.Context, cfg config.Config, pg db.Querier, redisClient *redis.Client) (kv.Store, error) {
	switch backendName(cfg.StoreBackend) {
	case config.BackendMemory:
		return kv.NewMemoryStore(), nil
	case config.BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("store backend %q needs a redis client", cfg.StoreBackend)
		}
		return kv.NewRedisStore(redisClient), nil
	case config.BackendPostgres:
		if pg == nil {
			return nil, fmt.Errorf("store backend %q needs a postgres connection", cfg.StoreBackend)
		}
		if err := db.EnsureSchema(ctx, pg); err != nil {
			return nil, fmt.Errorf("prepare kv schema: %w", err)
		}
		return kv.NewPostgresStore(pg), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func backendName(b string) string {
	if b == "" {
		return config.BackendMemory
	}
	return b
}

func (s *Server) broadcastTouches(d touchcount.Data) {
	payload, err := json.Marshal(d)
	if err != nil {
		s.Log.Warn("encode touch counts", zap.Error(err))
		return
	}
	s.Stream.Broadcast(touchcount.StorageKey, payload)
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "store": backendName(s.Cfg.StoreBackend)})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.Cfg.StudyAccessCodeHash, s.Store))
	distance.RegisterRoutes(s.App.Group("/distance"), s.Distance, jwtMiddleware)
	accuracy.RegisterRoutes(s.App.Group("/accuracy"), s.Accuracy, jwtMiddleware)
	touchcount.RegisterRoutes(s.App.Group("/touches"), s.Touches, jwtMiddleware)
	heatmap.RegisterRoutes(s.App.Group("/heatmap"), s.Heatmap, jwtMiddleware)
	screenshot.RegisterRoutes(s.App.Group("/screenshots"), s.Screenshots, jwtMiddleware)
	completion.RegisterRoutes(s.App.Group("/completion"), s.Completion, jwtMiddleware)
	timer.RegisterRoutes(s.App.Group("/timer"), s.Timer, jwtMiddleware)
	gesture.RegisterRoutes(s.App.Group("/gestures"), s.Drag, s.Swipe, jwtMiddleware)
	gesture.RegisterModalRoutes(s.App.Group("/modals"), s.Modals, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
