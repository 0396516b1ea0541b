package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxLogEntries = 100

// EditorLogEntry is a log line produced by the flow editor
type EditorLogEntry struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
	FlowID    string         `json:"flow_id"`
}

// EditorLogRequest is a batch of editor log lines
type EditorLogRequest struct {
	Source    string           `json:"source"`
	Entries   []EditorLogEntry `json:"entries"`
	Timestamp int64            `json:"timestamp"`
}

// StreamLogs forwards flow editor logs into the service log
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req EditorLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log request format"})
		return
	}
	if req.Source != "editor" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log source"})
		return
	}
	if len(req.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No log entries provided"})
		return
	}
	if len(req.Entries) > maxLogEntries {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many log entries"})
		return
	}

	logger := h.logger.Named("editor")
	for _, entry := range req.Entries {
		logEditorEntry(logger, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"entries_received": len(req.Entries),
		"timestamp":        time.Now().Unix(),
	})
}

func logEditorEntry(logger *zap.Logger, entry EditorLogEntry) {
	fields := make([]zap.Field, 0, len(entry.Context)+4)
	fields = append(fields,
		zap.String("editor_log_id", entry.ID),
		zap.String("source", "editor"),
		zap.String("editor_timestamp", entry.Timestamp),
	)
	if entry.FlowID != "" {
		fields = append(fields, zap.String("flow_id", entry.FlowID))
	}

	for key, value := range entry.Context {
		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, v))
		case float64:
			fields = append(fields, zap.Float64(key, v))
		case bool:
			fields = append(fields, zap.Bool(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}

	switch entry.Level {
	case "error":
		logger.Error(entry.Message, fields...)
	case "warn":
		logger.Warn(entry.Message, fields...)
	case "debug":
		logger.Debug(entry.Message, fields...)
	case "verbose":
		// Treat verbose as debug
		logger.Debug("[VERBOSE] "+entry.Message, fields...)
	default:
		logger.Info(entry.Message, fields...)
	}
}
