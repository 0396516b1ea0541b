package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flows"
	"github.com/GriffinCanCode/flowgallery/internal/shared/utils"
	"github.com/gin-gonic/gin"
)

// ListFlows lists flow instances, optionally limited to ?folder_id=
func (h *Handlers) ListFlows(c *gin.Context) {
	var folderID *string
	if folder, ok := c.GetQuery("folder_id"); ok {
		if err := utils.ValidateID(folder, "folder_id", false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		folderID = &folder
	}

	list := h.flows.List(folderID)
	if list == nil {
		list = []*flows.Flow{}
	}
	c.JSON(http.StatusOK, gin.H{
		"flows": list,
		"stats": h.flows.Stats(),
	})
}

// GetFlow returns one flow
func (h *Handlers) GetFlow(c *gin.Context) {
	flowID, ok := pathID(c, "id", "flow_id")
	if !ok {
		return
	}

	f, found := h.flows.Get(flowID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "flow not found"})
		return
	}
	c.JSON(http.StatusOK, f)
}

// DeleteFlow removes a flow
func (h *Handlers) DeleteFlow(c *gin.Context) {
	flowID, ok := pathID(c, "id", "flow_id")
	if !ok {
		return
	}

	if err := h.flows.Delete(flowID); err != nil {
		if errors.Is(err, flows.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "flow not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"flow_id": flowID,
	})
}
