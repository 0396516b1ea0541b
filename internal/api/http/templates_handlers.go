package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flows"
	"github.com/GriffinCanCode/flowgallery/internal/domain/gallery"
	"github.com/GriffinCanCode/flowgallery/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateFlowRequest customizes a flow created from a template
type CreateFlowRequest struct {
	Name     string  `json:"name" binding:"omitempty,max=256"`
	UserID   string  `json:"user_id" binding:"omitempty,max=128"`
	FolderID *string `json:"folder_id" binding:"omitempty,max=128"`
}

// ListTemplates lists every gallery category with its templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	categories := h.gallery.Categories()
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"stats":      h.registry.Stats(),
	})
}

// BrowseCategory lists the templates of one category
func (h *Handlers) BrowseCategory(c *gin.Context) {
	category, ok := pathID(c, "category", "category")
	if !ok {
		return
	}

	templates, found := h.gallery.Browse(category)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":  category,
		"templates": templates,
	})
}

// GetTemplate returns the template at (category, id)
func (h *Handlers) GetTemplate(c *gin.Context) {
	category, ok := pathID(c, "category", "category")
	if !ok {
		return
	}
	templateID, ok := pathID(c, "id", "template_id")
	if !ok {
		return
	}

	tpl, found := h.gallery.Template(category, templateID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}

	etag, err := utils.ETag(tpl)
	if err != nil {
		h.logger.Error("failed to compute template etag", zap.Error(err))
	} else {
		c.Header("ETag", etag)
		c.Header("Cache-Control", "no-cache")
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	c.JSON(http.StatusOK, tpl)
}

// CreateFlow instantiates a template and returns the editor route of the new flow
func (h *Handlers) CreateFlow(c *gin.Context) {
	category, ok := pathID(c, "category", "category")
	if !ok {
		return
	}
	templateID, ok := pathID(c, "id", "template_id")
	if !ok {
		return
	}

	var req CreateFlowRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.FolderID != nil {
		if err := utils.ValidateID(*req.FolderID, "folder_id", false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	f, err := h.gallery.CreateFlow(c.Request.Context(), category, templateID, flows.CreateOptions{
		Name:     req.Name,
		UserID:   req.UserID,
		FolderID: req.FolderID,
	})
	switch {
	case errors.Is(err, gallery.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	redirect := flows.Path(f.ID)
	c.Header("Location", redirect)
	c.JSON(http.StatusCreated, gin.H{
		"flow":     f,
		"redirect": redirect,
	})
}
