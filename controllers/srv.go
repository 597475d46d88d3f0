package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rental_backend/apierrors"
	"rental_backend/app"
	"rental_backend/db"
	"rental_backend/rental"
)

// Srv bundles the dependencies every controller needs.
type Srv struct {
	Repo   *db.Repo
	Rental *rental.Service
	Log    *zap.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{Repo: a.Repo, Rental: a.Rental, Log: a.Log}
}

func statusFor(kind apierrors.Kind) int {
	switch kind {
	case apierrors.KindNotFound:
		return http.StatusNotFound
	case apierrors.KindAlreadyExists:
		return http.StatusConflict
	case apierrors.KindForbidden:
		return http.StatusForbidden
	case apierrors.KindUnavailable:
		return http.StatusConflict
	case apierrors.KindRateLimited:
		return http.StatusTooManyRequests
	case apierrors.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the structured error response. Domain errors keep their
// bilingual messages; anything else is an opaque internal error.
func (s *Srv) fail(c *gin.Context, err error) {
	var rl *apierrors.RateLimitedError
	if errors.As(err, &rl) {
		c.Header("Retry-After", strconv.Itoa(rl.RetryAfterMinutes*60))
		c.JSON(http.StatusTooManyRequests, app.H{
			"error":               rl.Eng,
			"ru":                  rl.Ru,
			"retry_after_minutes": rl.RetryAfterMinutes,
		})
		return
	}
	var ae *apierrors.APIError
	if errors.As(err, &ae) {
		c.JSON(statusFor(ae.Kind), app.H{"error": ae.Eng, "ru": ae.Ru})
		return
	}
	s.Log.Error("internal error", zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
}

func callerID(c *gin.Context) string {
	return c.GetString("userID")
}
