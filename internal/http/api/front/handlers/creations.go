package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/credits"
	internaldb "github.com/SafeDevelopers/fantabuild-sub001/internal/db"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	internalsettings "github.com/SafeDevelopers/fantabuild-sub001/internal/settings"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/usagelimit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreationHandler serves creation endpoints.
type CreationHandler struct {
	db      *gorm.DB
	credits *credits.Service
	limiter *usagelimit.Manager
}

// NewCreationHandler constructs a CreationHandler.
func NewCreationHandler(db *gorm.DB, creditSvc *credits.Service, limiter *usagelimit.Manager) *CreationHandler {
	return &CreationHandler{db: db, credits: creditSvc, limiter: limiter}
}

// createCreationRequest defines the request body for creation generation.
type createCreationRequest struct {
	Name          string `json:"name"`
	HTML          string `json:"html"`
	OriginalImage string `json:"original_image"`
	Mode          string `json:"mode"`
}

// Create stores a generated artifact. FREE-plan accounts are held to the
// daily generation cap.
func (h *CreationHandler) Create(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	var body createCreationRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	mode := models.CreationMode(strings.TrimSpace(body.Mode))
	if mode == "" {
		mode = models.CreationModeWeb
	}
	switch mode {
	case models.CreationModeWeb, models.CreationModeMobile, models.CreationModeSocial, models.CreationModeLogo:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mode"})
		return
	}

	if user.Plan == models.PlanFree && h.limiter != nil {
		limit := internaldb.IntSetting(h.db, internalsettings.FreeDailyUsageLimitKey, internalsettings.DefaultFreeDailyUsageLimit)
		result, errAllow := h.limiter.Allow(c.Request.Context(), strconv.FormatUint(user.ID, 10), limit)
		if errAllow != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "usage check failed"})
			return
		}
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "daily limit reached",
				"reset": result.Reset,
			})
			return
		}
		if errCount := h.recordDailyUsage(c, user.ID); errCount != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "usage update failed"})
			return
		}
	}

	creation := models.Creation{
		UserID:        user.ID,
		Name:          name,
		HTML:          body.HTML,
		OriginalImage: strings.TrimSpace(body.OriginalImage),
		Mode:          mode,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&creation).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create creation failed"})
		return
	}

	c.JSON(http.StatusCreated, creationJSON(creation))
}

// recordDailyUsage mirrors the limiter count into the users table, resetting
// the counter when the UTC day rolled over.
func (h *CreationHandler) recordDailyUsage(c *gin.Context, userID uint64) error {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errFind := tx.Select("id", "daily_usage_count", "last_reset_date").First(&user, userID).Error; errFind != nil {
			return errFind
		}
		count := user.DailyUsageCount + 1
		if user.LastResetDate == nil || user.LastResetDate.Before(today) {
			count = 1
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
			"daily_usage_count": count,
			"last_reset_date":   today,
		}).Error
	})
}

// List returns the authenticated user's creations, newest first. A `q` query
// parameter filters by name, case-insensitively on either dialect.
func (h *CreationHandler) List(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	query := h.db.WithContext(c.Request.Context()).Where("user_id = ?", user.ID)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where(
			internaldb.CaseInsensitiveLikeExpr(h.db, "name"),
			internaldb.NormalizeLikePattern(h.db, "%"+q+"%"),
		)
	}

	var rows []models.Creation
	if errFind := query.
		Order("created_at DESC, id DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list creations failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, creationJSON(row))
	}
	c.JSON(http.StatusOK, gin.H{"creations": out})
}

// Get returns one of the user's creations by ID.
func (h *CreationHandler) Get(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}
	creation, ok := h.loadOwned(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, creationJSON(*creation))
}

// Delete removes one of the user's creations.
func (h *CreationHandler) Delete(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}
	creation, ok := h.loadOwned(c, user.ID)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(creation).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete creation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": creation.ID})
}

// Download charges one credit (DOWNLOAD) and returns the creation HTML.
func (h *CreationHandler) Download(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}
	creation, ok := h.loadOwned(c, user.ID)
	if !ok {
		return
	}

	if !creation.Purchased {
		if errSpend := h.credits.Spend(c.Request.Context(), user.ID, 1, models.CreditReasonDownload); errSpend != nil {
			if errors.Is(errSpend, credits.ErrInsufficientCredits) {
				c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient credits"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "spend credit failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   creation.ID,
		"name": creation.Name,
		"html": creation.HTML,
	})
}

// loadOwned loads a creation by path ID, enforcing ownership.
func (h *CreationHandler) loadOwned(c *gin.Context, userID uint64) (*models.Creation, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var creation models.Creation
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, userID).
		First(&creation).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load creation failed"})
		return nil, false
	}
	return &creation, true
}

// creationJSON shapes a creation for API responses.
func creationJSON(row models.Creation) gin.H {
	return gin.H{
		"id":             row.ID,
		"user_id":        row.UserID,
		"name":           row.Name,
		"html":           row.HTML,
		"original_image": row.OriginalImage,
		"mode":           row.Mode,
		"purchased":      row.Purchased,
		"created_at":     row.CreatedAt,
		"updated_at":     row.UpdatedAt,
	}
}
