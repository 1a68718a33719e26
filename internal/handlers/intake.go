package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// Enqueuer accepts tasks for asynchronous processing.
type Enqueuer interface {
	Enqueue(task models.Task)
}

// DefaultMaxPayloadBytes caps a single POST body when no limit is configured.
const DefaultMaxPayloadBytes int64 = 8 << 20

// RegisterIntakeRoutes registers the ingestion endpoint.
//
// ANY /store
//   - GET carries the fields in the query string
//   - POST carries them in the body (form, JSON or XML by Content-Type)
//   - Fire-and-forget: 202 means queued, not stored. Validation happens in
//     the worker and is only visible in the error log.
//   - Other methods are queued as well; the worker rejects them.
//   - Bodies over maxBytes are refused with 413 and never queued.
func RegisterIntakeRoutes(r gin.IRoutes, q Enqueuer, maxBytes int64) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}
	r.Any("/store", func(c *gin.Context) {
		var payload string
		if c.Request.Method == http.MethodGet {
			payload = c.Request.URL.RawQuery
			if payload == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "query string required"})
				return
			}
		} else {
			body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
					return
				}
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
				return
			}
			payload = string(body)
		}

		task := models.NewTask(c.Request.Method, c.GetHeader("Content-Type"), payload)
		q.Enqueue(task)

		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"task_id": task.ID,
		})
	})
}
