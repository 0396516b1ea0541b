package http

import (
	"net/http"

	"github.com/GriffinCanCode/flowgallery/internal/providers/sdlc"
	"github.com/gin-gonic/gin"
)

// ListComponents returns the SDLC component catalog
func (h *Handlers) ListComponents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"category":   sdlc.Category,
		"components": sdlc.Components(),
	})
}

// SearchJira runs the Jira component.
// Upstream failures come back as 200 with status "error".
func (h *Handlers) SearchJira(c *gin.Context) {
	var req sdlc.JiraRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.sdlc.SearchJira(c.Request.Context(), req))
}

// QueryWorkItems runs the Azure DevOps reader component
func (h *Handlers) QueryWorkItems(c *gin.Context) {
	var req sdlc.WorkItemsRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.sdlc.QueryWorkItems(c.Request.Context(), req))
}

// PreviewWIQL builds a WIQL query from structured parameters.
// An empty body returns the default query.
func (h *Handlers) PreviewWIQL(c *gin.Context) {
	var params *sdlc.QueryParams
	if c.Request.ContentLength != 0 {
		params = &sdlc.QueryParams{}
		if !bind(c, params) {
			return
		}
	}
	c.JSON(http.StatusOK, h.sdlc.PreviewWIQL(params))
}

// CreateWorkItems runs the Azure DevOps writer component
func (h *Handlers) CreateWorkItems(c *gin.Context) {
	var req sdlc.CreateRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.sdlc.CreateWorkItems(c.Request.Context(), req))
}

// ExtractWorkItems extracts work items without creating them
func (h *Handlers) ExtractWorkItems(c *gin.Context) {
	var req sdlc.ExtractRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.sdlc.ExtractWorkItems(c.Request.Context(), req))
}

// bind decodes the JSON body, writing a 400 on failure.
// Field requirements are checked by the component so its message reaches the UI.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
