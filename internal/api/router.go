package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/labintake/internal/middleware"
	"github.com/lalith-99/labintake/internal/repository"
	"github.com/lalith-99/labintake/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Service   *service.Service
	Store     repository.Store
	Logger    *zap.Logger
	JWTSecret string
	JWTTTL    time.Duration

	// LabLocation is the zone bare dates in query filters are read in.
	LabLocation *time.Location

	// Redis and RateLimiter are optional. A nil RateLimiter disables rate
	// limiting.
	Redis       *redis.Client
	RateLimiter middleware.Counter
	RatePerMin  int
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger), middleware.Metrics())
	if d.RateLimiter != nil {
		r.Use(middleware.RateLimiter(d.RateLimiter, d.RatePerMin, time.Minute, d.Logger))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := NewAuthHandler(d.Store.Users(), d.JWTSecret, d.JWTTTL, d.Logger)
	userH := NewUserHandler(d.Store.Users(), d.Logger)
	clientH := NewClientHandler(d.Service, d.Logger)
	sampleH := NewSampleHandler(d.Service, d.LabLocation, d.Logger)
	assayH := NewAssayHandler(d.Service, d.Logger)

	public := r.Group("/v1")
	public.GET("/health", Health(d.Store, d.Redis))
	public.POST("/auth/login", authH.Login)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(d.JWTSecret))

	v1.GET("/users/me", userH.GetMe)
	v1.GET("/users", userH.List)

	v1.POST("/clients", clientH.Create)
	v1.GET("/clients", clientH.List)
	v1.GET("/clients/:id", clientH.Get)
	v1.PATCH("/clients/:id", clientH.Update)
	v1.DELETE("/clients/:id", clientH.Delete)
	v1.GET("/clients/:id/samples", sampleH.ListForClient)

	v1.POST("/samples", sampleH.Create)
	v1.GET("/samples", sampleH.List)
	v1.GET("/samples/:id", sampleH.Get)
	v1.POST("/samples/:id/accept", sampleH.Accept)
	v1.POST("/samples/:id/state", sampleH.Transition)
	v1.POST("/samples/:id/sufficiency", sampleH.Sufficiency)
	v1.GET("/samples/:id/history", sampleH.History)
	v1.GET("/samples/:id/assays", assayH.ListForSample)
	v1.POST("/samples/:id/assays", assayH.Add)

	v1.GET("/assays", assayH.List)
	v1.GET("/assays/:id", assayH.Get)
	v1.POST("/assays/:id/analyst", assayH.AssignAnalyst)
	v1.POST("/assays/:id/results", assayH.RegisterResults)
	v1.POST("/assays/:id/cancel", assayH.Cancel)

	return r
}
