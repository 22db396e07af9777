package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"medium_syncer/internal/domain"
)

const (
	defaultRecordsLimit = 50
	maxRecordsLimit     = 200
	defaultRunsLimit    = 20
)

// Syncer is the slice of the sync service the HTTP layer needs.
type Syncer interface {
	Run(ctx context.Context) (*domain.RunResult, error)
	SyncOne(ctx context.Context, articleURL string) (*domain.SyncRecord, error)
	Records(ctx context.Context, limit, offset int) ([]domain.SyncRecord, error)
	Runs(ctx context.Context, limit int) ([]domain.SyncRun, error)
	Stats(ctx context.Context) (*domain.Stats, *domain.SyncRun, error)
	TestConnections(ctx context.Context) map[string]bool
}

// ScheduleInfo exposes the next scheduled run time.
type ScheduleInfo interface {
	NextRun() time.Time
}

type Handler struct {
	syncer   Syncer
	schedule ScheduleInfo
	logger   *slog.Logger
}

func NewHandler(syncer Syncer, schedule ScheduleInfo, logger *slog.Logger) *Handler {
	return &Handler{
		syncer:   syncer,
		schedule: schedule,
		logger:   logger.With("component", "api"),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Status(c *gin.Context) {
	stats, lastRun, err := h.syncer.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("read status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read status"})
		return
	}

	resp := gin.H{
		"stats":    stats,
		"last_run": lastRun,
	}
	if h.schedule != nil {
		if next := h.schedule.NextRun(); !next.IsZero() {
			resp["next_run"] = next.Format(time.RFC3339)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Records(c *gin.Context) {
	limit := intQuery(c, "limit", defaultRecordsLimit)
	if limit > maxRecordsLimit {
		limit = maxRecordsLimit
	}
	offset := intQuery(c, "offset", 0)

	records, err := h.syncer.Records(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list records", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

func (h *Handler) Runs(c *gin.Context) {
	limit := intQuery(c, "limit", defaultRunsLimit)

	runs, err := h.syncer.Runs(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

func (h *Handler) TriggerSync(c *gin.Context) {
	result, err := h.syncer.Run(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "sync already in progress"})
		case errors.Is(err, domain.ErrSourceUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			h.logger.Error("manual sync", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

type syncArticleRequest struct {
	URL string `json:"url" binding:"required"`
}

func (h *Handler) SyncArticle(c *gin.Context) {
	var req syncArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	record, err := h.syncer.SyncOne(c.Request.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "sync already in progress"})
		case errors.Is(err, domain.ErrDuplicateRecord):
			c.JSON(http.StatusConflict, gin.H{"error": "article already synced"})
		case errors.Is(err, domain.ErrSourceUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			h.logger.Error("sync single article", "url", req.URL, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		}
		return
	}

	status := http.StatusCreated
	if record.Status != domain.StatusSuccess {
		status = http.StatusOK
	}
	c.JSON(status, record)
}

func (h *Handler) TestConnection(c *gin.Context) {
	results := h.syncer.TestConnections(c.Request.Context())
	c.JSON(http.StatusOK, results)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
