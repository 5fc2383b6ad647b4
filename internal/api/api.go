package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sliink/hopmon/internal/api/docs"
	"github.com/sliink/hopmon/internal/core"
	"github.com/sliink/hopmon/internal/model"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// bufferReporter is implemented by inputs that queue lines between polls
type bufferReporter interface {
	BufferStatus() map[string]model.BufferStatus
}

// API is the read-only HTTP view of a running monitor
type API struct {
	core   *core.Core
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
	port   int
	host   string
}

// NewAPI creates a new API instance
// @title           Hop Monitor API
// @version         1.0
// @description     Read-only view of hop telemetry sources and ingest health

// @host      localhost:8080
// @BasePath  /
func NewAPI(c *core.Core, host string, port int, logger *slog.Logger) *API {
	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%d", host, port)
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http"}

	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	api := &API{
		core:   c,
		router: router,
		logger: logger,
		port:   port,
		host:   host,
	}

	api.setupRoutes()

	return api
}

// Handler returns the HTTP handler serving the API
func (a *API) Handler() http.Handler {
	return a.router
}

// setupRoutes configures all the API routes
func (a *API) setupRoutes() {
	a.router.GET("/health", a.healthCheck)
	a.router.GET("/status", a.getStatus)
	a.router.GET("/stats", a.getStats)

	sources := a.router.Group("/sources")
	{
		sources.GET("", a.getSources)
		sources.GET("/:source", a.getSource)
	}

	plugins := a.router.Group("/plugins")
	{
		plugins.GET("", a.getPlugins)
		plugins.GET("/:type", a.getPluginsByType)
		plugins.GET("/:type/:name", a.getPluginByName)
	}

	a.router.GET("/buffers", a.getBuffers)
	a.router.GET("/config", a.getConfig)

	a.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Start serves the API until Stop is called
func (a *API) Start() error {
	addr := fmt.Sprintf("%s:%d", a.host, a.port)
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.logger.Info("api listening", "addr", addr)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the API server
func (a *API) Stop(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// healthCheck handles GET /health
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

// getStatus handles GET /status
// @Summary      Get system status
// @Description  Get the status of the monitor, its components and metrics
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /status [get]
func (a *API) getStatus(c *gin.Context) {
	health := a.core.GetHealthMonitor().GetHealthStatus()

	response := gin.H{
		"status":      a.core.GetStatus(),
		"health":      health,
		"ingest":      nil,
		"sources":     a.core.GetSourceTable().Len(),
		"stale_after": a.core.GetSourceTable().Threshold().String(),
	}
	if ingestor := a.core.GetIngestor(); ingestor != nil {
		response["ingest"] = gin.H{
			"state": ingestor.State(),
			"stats": ingestor.Stats(),
		}
	}

	c.JSON(http.StatusOK, response)
}

// getStats handles GET /stats
// @Summary      Get ingest counters
// @Description  Lines read, accepted and dropped, and data log health
// @Tags         system
// @Produce      json
// @Success      200  {object}  core.IngestStats
// @Failure      503  {object}  map[string]string
// @Router       /stats [get]
func (a *API) getStats(c *gin.Context) {
	ingestor := a.core.GetIngestor()
	if ingestor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ingestion not started"})
		return
	}
	c.JSON(http.StatusOK, ingestor.Stats())
}

// getSources handles GET /sources
// @Summary      Get all sources
// @Description  Snapshot of every source seen with its last retries and liveness
// @Tags         sources
// @Produce      json
// @Success      200  {object}  model.Snapshot
// @Router       /sources [get]
func (a *API) getSources(c *gin.Context) {
	c.JSON(http.StatusOK, a.core.Snapshot())
}

// getSource handles GET /sources/:source
// @Summary      Get one source
// @Description  Last retries and liveness of a single source
// @Tags         sources
// @Produce      json
// @Param        source  path    string  true  "Source node name"
// @Success      200  {object}  model.SourceStatus
// @Failure      404  {object}  map[string]string
// @Router       /sources/{source} [get]
func (a *API) getSource(c *gin.Context) {
	if status, ok := a.core.Snapshot().Lookup(c.Param("source")); ok {
		c.JSON(http.StatusOK, status)
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
}

// getPlugins handles GET /plugins
// @Summary      Get all plugins
// @Description  Get information about all registered plugins
// @Tags         plugins
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /plugins [get]
func (a *API) getPlugins(c *gin.Context) {
	c.JSON(http.StatusOK, a.pluginInfo(""))
}

// getPluginsByType handles GET /plugins/:type
// @Summary      Get plugins by type
// @Description  Get information about plugins of a specific type
// @Tags         plugins
// @Produce      json
// @Param        type    path    string  true  "Plugin type (input, processor, output)"
// @Success      200  {object}  map[string]interface{}
// @Router       /plugins/{type} [get]
func (a *API) getPluginsByType(c *gin.Context) {
	c.JSON(http.StatusOK, a.pluginInfo(c.Param("type")))
}

// getPluginByName handles GET /plugins/:type/:name
// @Summary      Get plugin by name
// @Description  Get information about a specific plugin
// @Tags         plugins
// @Produce      json
// @Param        type    path    string  true  "Plugin type (input, processor, output)"
// @Param        name    path    string  true  "Plugin ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /plugins/{type}/{name} [get]
func (a *API) getPluginByName(c *gin.Context) {
	plugins := a.pluginInfo(c.Param("type"))
	if plugin, exists := plugins[c.Param("name")]; exists {
		c.JSON(http.StatusOK, plugin)
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "Plugin not found"})
}

// pluginInfo describes registered plugins, filtered by type when pluginType
// is not empty
func (a *API) pluginInfo(pluginType string) map[string]interface{} {
	result := make(map[string]interface{})
	for _, p := range a.core.GetRegistry().GetAllPlugins() {
		if pluginType != "" && !strings.EqualFold(string(p.GetType()), pluginType) {
			continue
		}
		result[p.ID()] = gin.H{
			"id":     p.ID(),
			"name":   p.Name(),
			"type":   strings.ToLower(string(p.GetType())),
			"status": p.GetStatus(),
		}
	}
	return result
}

// getBuffers handles GET /buffers
// @Summary      Get all buffers
// @Description  Line queues of inputs that read in the background
// @Tags         buffers
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /buffers [get]
func (a *API) getBuffers(c *gin.Context) {
	result := make(map[string]model.BufferStatus)
	for _, p := range a.core.GetRegistry().GetAllPlugins() {
		reporter, ok := p.(bufferReporter)
		if !ok {
			continue
		}
		for id, status := range reporter.BufferStatus() {
			result[id] = status
		}
	}
	c.JSON(http.StatusOK, result)
}

// getConfig handles GET /config
// @Summary      Get configuration
// @Description  Get the current monitor configuration
// @Tags         config
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /config [get]
func (a *API) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, a.core.GetConfigManager().AllConfig())
}
