package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/gamedata-server/internal/auth"
	"github.com/PratikDhanave/gamedata-server/internal/errsink"
	"github.com/PratikDhanave/gamedata-server/internal/pipeline"
)

// StatusSource is what the status endpoint reports on.
type StatusSource interface {
	State() pipeline.State
	IsActive() bool
	StartupError() error
	QueueLen() int
	Stats() pipeline.Stats
	Recent() []errsink.Report
}

type reportView struct {
	TaskID       string    `json:"task_id"`
	Received     time.Time `json:"received"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	DataType     string    `json:"data_type,omitempty"`
	RecordStored bool      `json:"record_stored"`
}

// RegisterStatusRoutes registers the operator endpoint.
//
// GET /admin/status
//   - Requires X-API-Key
//   - Worker state, startup error, queue length, counters and the most
//     recent errors and warnings
func RegisterStatusRoutes(r gin.IRoutes, src StatusSource) {
	r.GET("/admin/status", func(c *gin.Context) {
		startupErr := ""
		if err := src.StartupError(); err != nil {
			startupErr = err.Error()
		}

		reports := src.Recent()
		recent := make([]reportView, 0, len(reports))
		for i := len(reports) - 1; i >= 0; i-- {
			rep := reports[i]
			recent = append(recent, reportView{
				TaskID:       rep.Task.ID,
				Received:     rep.Task.Timestamp,
				Severity:     string(rep.Severity),
				Message:      rep.Message,
				DataType:     rep.Request.Value("data"),
				RecordStored: rep.RecordStored,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"operator":      auth.Operator(c),
			"state":         src.State().String(),
			"active":        src.IsActive(),
			"startup_error": startupErr,
			"queue_length":  src.QueueLen(),
			"stats":         src.Stats(),
			"recent":        recent,
		})
	})
}
