package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rental_backend/app"
	"rental_backend/models"
	"rental_backend/rental"
)

type SessionController struct{ *Srv }

func NewSessionController(s *Srv) *SessionController { return &SessionController{Srv: s} }

// Create reserves an item of the given type for the caller. Contact info in
// the body is captured on the session.
func (sc *SessionController) Create(c *gin.Context) {
	var in struct {
		Phone    *string `json:"phone"`
		Fullname *string `json:"fullname"`
	}
	_ = c.ShouldBindJSON(&in)

	sess, err := sc.Rental.Create(c.Request.Context(), callerID(c), c.Param("itemTypeId"), rental.CreateInput{
		Phone:    in.Phone,
		Fullname: in.Fullname,
	})
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// Start hands the item over (staff only). An explicit deadline in the body
// overrides the default cutoff.
func (sc *SessionController) Start(c *gin.Context) {
	var in struct {
		Deadline *time.Time `json:"deadline"`
	}
	_ = c.ShouldBindJSON(&in)

	sess, err := sc.Rental.Start(c.Request.Context(), c.Param("id"), callerID(c), in.Deadline)
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Return closes the rental (staff only); ?with_strike=true&strike_reason=...
// also issues a penalty.
func (sc *SessionController) Return(c *gin.Context) {
	withStrike := c.Query("with_strike") == "true"
	reason := c.Query("strike_reason")

	sess, err := sc.Rental.Return(c.Request.Context(), c.Param("id"), callerID(c), withStrike, reason)
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Cancel lets the owner abandon a reservation before pickup.
func (sc *SessionController) Cancel(c *gin.Context) {
	sess, err := sc.Rental.Cancel(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Update is the staff partial patch. Only supplied fields change; a patch
// equal to the current state is rejected.
func (sc *SessionController) Update(c *gin.Context) {
	var in struct {
		Status         *models.RentStatus `json:"status"`
		EndTS          *time.Time         `json:"endTs"`
		ActualReturnTS *time.Time         `json:"actualReturnTs"`
		DeadlineTS     *time.Time         `json:"deadlineTs"`
		AdminCloseID   *string            `json:"adminCloseId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	sess, err := sc.Rental.AdminUpdate(c.Request.Context(), c.Param("id"), callerID(c), rental.SessionPatch{
		Status:         in.Status,
		EndTS:          in.EndTS,
		ActualReturnTS: in.ActualReturnTS,
		DeadlineTS:     in.DeadlineTS,
		AdminCloseID:   in.AdminCloseID,
	})
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (sc *SessionController) Delete(c *gin.Context) {
	if err := sc.Rental.Delete(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"status": "success"})
}

func (sc *SessionController) Get(c *gin.Context) {
	sess, err := sc.Rental.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// ListByUser returns one user's sessions. Non-staff callers only see their
// own.
func (sc *SessionController) ListByUser(c *gin.Context) {
	userID := c.Param("userId")
	if !c.GetBool("isAdmin") && userID != callerID(c) {
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}
	sessions, err := sc.Rental.List(c.Request.Context(), rental.SessionFilter{UserID: userID})
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"sessions": sessions})
}

// List is the staff listing; status flags select which states to show, e.g.
// ?is_reserved=true&is_overdue=true.
func (sc *SessionController) List(c *gin.Context) {
	var statuses []models.RentStatus
	for flag, st := range map[string]models.RentStatus{
		"is_reserved":  models.StatusReserved,
		"is_active":    models.StatusActive,
		"is_canceled":  models.StatusCanceled,
		"is_overdue":   models.StatusOverdue,
		"is_returned":  models.StatusReturned,
		"is_dismissed": models.StatusDismissed,
		"is_expired":   models.StatusExpired,
	} {
		if c.Query(flag) == "true" {
			statuses = append(statuses, st)
		}
	}
	sessions, err := sc.Rental.List(c.Request.Context(), rental.SessionFilter{Statuses: statuses})
	if err != nil {
		sc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"sessions": sessions})
}
