// Package front exposes the Fanta Build user-facing HTTP API.
package front

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/config"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/credits"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/http/api/front/handlers"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/payments"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/security"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/usagelimit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterRoutes registers the front API routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, limiter *usagelimit.Manager) {
	if r == nil || db == nil {
		return
	}

	creditSvc := credits.NewService(db)
	paymentSvc := payments.NewService(db, creditSvc)

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	v0 := r.Group("/v0")

	authHandler := handlers.NewAuthHandler(db, creditSvc, jwtCfg)
	v0.POST("/auth/register", authHandler.Register)
	v0.POST("/auth/login", authHandler.Login)

	authed := v0.Group("")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	creationHandler := handlers.NewCreationHandler(db, creditSvc, limiter)
	authed.POST("/creations", creationHandler.Create)
	authed.GET("/creations", creationHandler.List)
	authed.GET("/creations/:id", creationHandler.Get)
	authed.DELETE("/creations/:id", creationHandler.Delete)
	authed.POST("/creations/:id/download", creationHandler.Download)

	creditHandler := handlers.NewCreditHandler(creditSvc)
	authed.GET("/credits", creditHandler.Balance)
	authed.GET("/credits/ledger", creditHandler.Ledger)
	authed.POST("/credits/spend", creditHandler.Spend)

	paymentHandler := handlers.NewPaymentHandler(db, paymentSvc)
	authed.POST("/payments/sessions", paymentHandler.CreateSession)
	authed.POST("/payments/sessions/:id/complete", paymentHandler.CompleteSession)
	authed.POST("/payments/sessions/:id/cancel", paymentHandler.CancelSession)
	authed.GET("/payments", paymentHandler.List)
}

// userAuthMiddleware authenticates requests via a Bearer JWT and loads the
// user record onto the context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "load user failed"})
			return
		}

		c.Set(handlers.ContextUserKey, &user)
		c.Next()
	}
}
