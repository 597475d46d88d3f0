package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental_backend/app"
	"rental_backend/db"
)

type EventController struct{ *Srv }

func NewEventController(s *Srv) *EventController { return &EventController{Srv: s} }

// List exposes the audit trail to staff, newest first.
func (ec *EventController) List(c *gin.Context) {
	f := db.EventFilter{
		UserID:     c.Query("user_id"),
		AdminID:    c.Query("admin_id"),
		SessionID:  c.Query("session_id"),
		ActionType: c.Query("action_type"),
	}
	if v := c.Query("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
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
	if okFrom && okTo {
		f.From, f.To = &from, &to
	}

	events, err := ec.Repo.ListEvents(c.Request.Context(), f)
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"events": events})
}

func (ec *EventController) Get(c *gin.Context) {
	e, err := ec.Repo.FindEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
