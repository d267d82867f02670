package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one area under a shared prefix and
// middleware chain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, handlers)
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers bundles the HTTP handlers served by the engine
type Handlers struct {
	Products *handler.ProductHandler
	Sales    *handler.SaleHandler
	Reports  *handler.ReportHandler
	Health   *handler.HealthHandler
	// Images is set only when product images are kept in memory
	Images *handler.ImageHandler
}

// Dependencies holds everything NewEngine wires together
type Dependencies struct {
	HTTP        config.HTTPConfig
	Tracing     middleware.TracingConfig
	Tokens      middleware.TokenValidator
	RateLimiter *middleware.RateLimiter
	// Metrics is optional; without it /metrics is not served
	Metrics     MetricsExporter
	MetricsPath string
	Handlers    Handlers
	Logger      *zap.Logger
}

// MetricsExporter observes requests and exposes the scrape endpoint
type MetricsExporter interface {
	middleware.RequestObserver
	Handler() http.Handler
}

// NewEngine builds the gin engine with the global middleware chain and every route
func NewEngine(deps Dependencies) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(deps.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(deps.Tracing))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.CORS(corsConfig(deps.HTTP)))
	if deps.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(deps.Metrics))
	}
	if deps.RateLimiter != nil {
		engine.Use(middleware.RateLimit(deps.RateLimiter))
	}

	h := deps.Handlers
	engine.GET("/health", h.Health.Health)
	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(deps.Metrics.Handler()))
	}
	if h.Images != nil {
		engine.GET("/images/*key", h.Images.Serve)
	}

	requireAuth := middleware.JWTAuth(deps.Tokens, log)
	optionalAuth := middleware.OptionalJWTAuth(deps.Tokens, log)
	jsonLimit := middleware.BodyLimit(deps.HTTP.MaxBodySize)
	uploadLimit := middleware.BodyLimit(deps.HTTP.MaxUploadSize)

	products := NewDomainGroup("products", "/products").
		GET("", optionalAuth, h.Products.List).
		GET("/detail", optionalAuth, h.Products.Detail).
		GET("/top-products", optionalAuth, h.Products.TopProducts).
		POST("", requireAuth, jsonLimit, h.Products.Create).
		PUT("/edit/:id", requireAuth, jsonLimit, h.Products.Update).
		POST("/like/:id", requireAuth, jsonLimit, h.Products.Like).
		POST("/import", requireAuth, uploadLimit, h.Products.Import).
		POST("/:id/images", requireAuth, uploadLimit, h.Products.AttachImages)

	publicSales := NewDomainGroup("public-sales", "/sales").
		Use(jsonLimit).
		POST("/public", h.Sales.CreatePublic)

	sales := NewDomainGroup("sales", "/sales").
		Use(requireAuth, jsonLimit).
		POST("", h.Sales.Create).
		GET("", h.Sales.List).
		GET("/detail", h.Sales.Detail).
		PUT("/status", h.Sales.ChangeStatus).
		GET("/total", h.Reports.Total).
		GET("/daily", h.Reports.Daily).
		GET("/monthly", h.Reports.Monthly)

	NewRouter(engine).
		Register(products).
		Register(publicSales).
		Register(sales).
		Setup()

	return engine, nil
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		c.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		c.AllowHeaders = cfg.CORSAllowHeaders
	}
	return c
}
