package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rosbache/afry-img2ifc/internal/repository"
)

// Handler serves processed image records and the hosted images the exported
// IFC documents reference.
type Handler struct {
	repo     repository.RecordRepository
	imageDir string
}

func NewHandler(repo repository.RecordRepository, imageDir string) *Handler {
	return &Handler{
		repo:     repo,
		imageDir: imageDir,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/records", h.getRecords)
	r.GET("/health", h.health)
	if h.imageDir != "" {
		r.Static("/images", h.imageDir)
	}
}

func (h *Handler) getRecords(c *gin.Context) {
	filter := repository.Filter{
		Limit: 100, // Default to 100 records if limit param not supplied
	}

	if b := c.Query("batch"); b != "" {
		filter.Batch = b
	}
	if g := c.Query("has_gps"); g != "" {
		if hasGPS, err := strconv.ParseBool(g); err == nil {
			filter.HasGPS = &hasGPS
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 1000 {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off >= 0 {
			filter.Offset = off
		}
	}

	records, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch records",
		})
		return
	}

	fc := toGeoJSON(records)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
