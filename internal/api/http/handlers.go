package http

import (
	"net/http"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flows"
	"github.com/GriffinCanCode/flowgallery/internal/domain/gallery"
	"github.com/GriffinCanCode/flowgallery/internal/domain/registry"
	"github.com/GriffinCanCode/flowgallery/internal/providers/sdlc"
	"github.com/GriffinCanCode/flowgallery/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName = "Flow Gallery Service"
	version     = "0.3.0"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	gallery       *gallery.Gallery
	registry      *registry.Registry
	flows         *flows.Manager
	sdlc          *sdlc.Service
	logger        *zap.Logger
	remoteEnabled bool
}

// NewHandlers creates a new handler set
func NewHandlers(
	gal *gallery.Gallery,
	reg *registry.Registry,
	flowManager *flows.Manager,
	sdlcService *sdlc.Service,
	logger *zap.Logger,
	remoteEnabled bool,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		gallery:       gal,
		registry:      reg,
		flows:         flowManager,
		sdlc:          sdlcService,
		logger:        logger,
		remoteEnabled: remoteEnabled,
	}
}

// Register mounts every route on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	// Template gallery
	router.GET("/templates", h.ListTemplates)
	router.GET("/templates/:category", h.BrowseCategory)
	router.GET("/templates/:category/:id", h.GetTemplate)
	router.POST("/templates/:category/:id/flows", h.CreateFlow)

	// Flow instances
	router.GET("/flows", h.ListFlows)
	router.GET("/flows/:id", h.GetFlow)
	router.DELETE("/flows/:id", h.DeleteFlow)

	// SDLC components
	router.GET("/components", h.ListComponents)
	router.POST("/components/jira/issues", h.SearchJira)
	router.POST("/components/azure-devops/work-items", h.QueryWorkItems)
	router.POST("/components/azure-devops/wiql", h.PreviewWIQL)
	router.POST("/components/azure-devops/work-items/create", h.CreateWorkItems)
	router.POST("/components/azure-devops/work-items/extract", h.ExtractWorkItems)

	// Editor client logs
	router.POST("/logs", h.StreamLogs)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"registry":   h.registry.Stats(),
		"flows":      h.flows.Stats(),
		"flow_store": gin.H{"enabled": h.remoteEnabled},
	})
}

// pathID reads and validates a path parameter, writing a 400 on failure
func pathID(c *gin.Context, name, field string) (string, bool) {
	value := c.Param(name)
	if err := utils.ValidateID(value, field, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return value, true
}
