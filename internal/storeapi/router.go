// Package storeapi serves the record store over a json-server compatible
// REST surface: one resource per collection, numeric ids, exact-match
// query filters.
package storeapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dukerupert/familydo/internal/collection"
	"github.com/dukerupert/familydo/internal/metrics"
	"github.com/dukerupert/familydo/internal/store"
)

type Handler struct {
	store  *store.RecordStore
	logger *slog.Logger
}

func NewHandler(s *store.RecordStore, logger *slog.Logger) *Handler {
	return &Handler{store: s, logger: logger}
}

// NewRouter builds the gin engine for the store service.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	coll := r.Group("/:collection", knownCollection)
	coll.GET("", h.List)
	coll.POST("", h.Create)
	coll.GET("/:id", h.Get)
	coll.PATCH("/:id", h.Patch)
	coll.PUT("/:id", h.Replace)
	coll.DELETE("/:id", h.Delete)

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, status, duration)

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", duration.String(),
		)
	}
}

func knownCollection(c *gin.Context) {
	if !collection.Name(c.Param("collection")).Valid() {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
		return
	}
	c.Next()
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{})
		return 0, false
	}
	return id, true
}

// filterFrom turns query parameters into an exact-match filter. Parameters
// starting with an underscore are json-server operators and are ignored.
func filterFrom(c *gin.Context) map[string]string {
	filter := map[string]string{}
	for k, v := range c.Request.URL.Query() {
		if strings.HasPrefix(k, "_") || len(v) == 0 {
			continue
		}
		filter[k] = v[0]
	}
	return filter
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if errors.Is(err, store.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error(msg, "collection", c.Param("collection"), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (h *Handler) List(c *gin.Context) {
	records, err := h.store.List(c.Param("collection"), filterFrom(c))
	if err != nil {
		h.fail(c, "failed to list records", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	record, err := h.store.Get(c.Param("collection"), id)
	if err != nil {
		h.fail(c, "failed to get record", err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) Create(c *gin.Context) {
	var body store.Record
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	delete(body, "id")

	record, err := h.store.Create(c.Param("collection"), body)
	if err != nil {
		h.fail(c, "failed to create record", err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) Patch(c *gin.Context) {
	h.update(c, h.store.Patch)
}

func (h *Handler) Replace(c *gin.Context) {
	h.update(c, h.store.Replace)
}

func (h *Handler) update(c *gin.Context, apply func(string, int64, store.Record) (store.Record, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body store.Record
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := apply(c.Param("collection"), id, body)
	if err != nil {
		h.fail(c, "failed to update record", err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	found, err := h.store.Delete(c.Param("collection"), id)
	if err != nil {
		h.fail(c, "failed to delete record", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
