package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"rental_backend/apierrors"
	"rental_backend/app"
	"rental_backend/db"
	"rental_backend/models"
)

type StrikeController struct{ *Srv }

func NewStrikeController(s *Srv) *StrikeController { return &StrikeController{Srv: s} }

// Create issues a standalone penalty (staff only). Strikes tied to a return
// are created by the rental service instead.
func (sc *StrikeController) Create(c *gin.Context) {
	var in struct {
		UserID    string  `json:"userId" binding:"required"`
		Reason    string  `json:"reason" binding:"required"`
		SessionID *string `json:"sessionId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	strike := &models.Strike{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		AdminID:   callerID(c),
		SessionID: in.SessionID,
		Reason:    in.Reason,
		CreateTS:  time.Now().UTC(),
	}
	if err := sc.Repo.CreateStrike(c.Request.Context(), strike); err != nil {
		sc.fail(c, err)
		return
	}
	sc.logAction(c, models.ActionCreateStrike, in.SessionID, datatypes.JSONMap{
		"strike_id": strike.ID,
		"user_id":   in.UserID,
		"reason":    in.Reason,
	})
	c.JSON(http.StatusCreated, strike)
}

// List filters strikes by user, staff, session and creation date range. A
// half-open date range is rejected.
func (sc *StrikeController) List(c *gin.Context) {
	f := db.StrikeFilter{
		UserID:    c.Query("user_id"),
		AdminID:   c.Query("admin_id"),
		SessionID: c.Query("session_id"),
	}
	from, okFrom, err := parseTimeQuery(c, "from_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	to, okTo, err := parseTimeQuery(c, "to_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if okFrom != okTo {
		sc.fail(c, apierrors.DateRangeError())
		return
	}
	if okFrom {
		f.From, f.To = &from, &to
	}

	strikes, err := sc.Repo.ListStrikes(c.Request.Context(), f, false)
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"strikes": strikes})
}

func (sc *StrikeController) ListByUser(c *gin.Context) {
	strikes, err := sc.Repo.ListStrikes(c.Request.Context(), db.StrikeFilter{UserID: c.Param("userId")}, false)
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"strikes": strikes})
}

func (sc *StrikeController) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := sc.Repo.DeleteStrike(c.Request.Context(), id); err != nil {
		sc.fail(c, err)
		return
	}
	sc.logAction(c, models.ActionDeleteStrike, nil, datatypes.JSONMap{"id": id})
	c.JSON(http.StatusOK, app.H{"status": "success"})
}

func parseTimeQuery(c *gin.Context, name string) (time.Time, bool, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
