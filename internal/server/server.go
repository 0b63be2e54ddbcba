package server

import (
	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/config"
	"backend-nextquest/internal/db"
	"backend-nextquest/internal/discover"
	"backend-nextquest/internal/favorites"
	"backend-nextquest/internal/logging"
	"backend-nextquest/internal/photo"
	"backend-nextquest/internal/position"
	"backend-nextquest/internal/review"
	"backend-nextquest/internal/spot"
	"backend-nextquest/internal/storage"
	"backend-nextquest/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        db.Querier
	Redis     *redis.Client
	Stream    *stream.Hub
	Favorites *favorites.Manager
}

// NewServer wires every route. pg and redisClient may be nil in tests;
// requests that need them then fail, while /health keeps answering.
func NewServer(cfg config.Config, pg db.Querier, redisClient *redis.Client, blobs storage.BlobStore) *Server {
	app := fiber.New(fiber.Config{BodyLimit: bodyLimit(cfg)})
	app.Use(recover.New())
	app.Use(requestID())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:request_id} ${status} - ${latency} ${method} ${path}\n",
	}))

	s := &Server{
		App:       app,
		Cfg:       cfg,
		DB:        pg,
		Redis:     redisClient,
		Stream:    stream.NewHub(redisClient),
		Favorites: favorites.NewManager(favorites.NewPGProfileStore(pg)),
	}

	registerRoutes(s, blobs)
	return s
}

// requestID tags each request with an id, taken from the client when it
// sends one, and carries it into the user context for logging.Ctx.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" {
			id = logging.GenerateRequestID()
		}
		c.Locals("request_id", id)
		c.Set(requestIDHeader, id)
		c.SetUserContext(logging.ContextWithRequestID(c.UserContext(), id))
		return c.Next()
	}
}

func bodyLimit(cfg config.Config) int {
	// Multipart overhead on top of the largest accepted file.
	limit := cfg.MaxUploadBytes + 1<<20
	if limit < fiber.DefaultBodyLimit {
		return fiber.DefaultBodyLimit
	}
	return limit
}

func registerRoutes(s *Server, blobs storage.BlobStore) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	events := stream.Publisher(s.Stream)
	maxBytes := int64(s.Cfg.MaxUploadBytes)

	spots := spot.NewService(s.DB)
	reviews := review.NewService(s.DB, spots, nil)
	objects := storage.NewService(s.DB, blobs, s.Cfg.BlobPublicURL, maxBytes)
	positions := position.NewService(s.Redis, s.Cfg.PositionTTL)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB), jwtMiddleware)
	spot.RegisterRoutes(s.App.Group("/spots"), spots, jwtMiddleware, events)
	review.RegisterRoutes(s.App.Group("/spots/:spotID/reviews"), reviews, jwtMiddleware, events)
	photo.RegisterRoutes(s.App.Group("/spots/:spotID/photos"), photo.NewService(s.DB, spots, objects), objects.MaxBytes(), jwtMiddleware, events)
	favorites.RegisterRoutes(s.App.Group("/favorites"), s.Favorites, spots, jwtMiddleware, events)
	position.RegisterRoutes(s.App.Group("/position"), positions, jwtMiddleware)
	discover.RegisterRoutes(s.App.Group("/discover"), discover.NewService(spots, reviews, s.Favorites, positions), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware)
	storage.RegisterRoutes(s.App, objects, jwtMiddleware)
}
