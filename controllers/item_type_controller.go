package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"rental_backend/app"
	"rental_backend/models"
)

type ItemTypeController struct{ *Srv }

func NewItemTypeController(s *Srv) *ItemTypeController { return &ItemTypeController{Srv: s} }

// logAction appends a catalog audit event. Catalog mutations are single
// statements, so the append rides outside their transaction but still within
// the request.
func (s *Srv) logAction(c *gin.Context, action string, sessionID *string, details datatypes.JSONMap) {
	admin := callerID(c)
	e := &models.Event{
		ID:         uuid.NewString(),
		AdminID:    &admin,
		SessionID:  sessionID,
		ActionType: action,
		Details:    details,
		CreateTS:   time.Now().UTC(),
	}
	if err := s.Repo.AppendEvent(c.Request.Context(), e); err != nil {
		s.Log.Error("append audit event", zap.Error(err), zap.String("action", action))
	}
}

func (tc *ItemTypeController) Create(c *gin.Context) {
	var in struct {
		Name        string  `json:"name" binding:"required"`
		ImageURL    *string `json:"imageUrl"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	it := &models.ItemType{
		ID:          uuid.NewString(),
		Name:        in.Name,
		ImageURL:    in.ImageURL,
		Description: in.Description,
	}
	if err := tc.Repo.CreateItemType(c.Request.Context(), it); err != nil {
		tc.fail(c, err)
		return
	}
	tc.logAction(c, models.ActionCreateItemType, nil, datatypes.JSONMap{"id": it.ID, "name": it.Name})
	c.JSON(http.StatusCreated, it)
}

func (tc *ItemTypeController) Get(c *gin.Context) {
	it, err := tc.Repo.FindItemType(c.Request.Context(), c.Param("id"))
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (tc *ItemTypeController) List(c *gin.Context) {
	types, err := tc.Repo.ListItemTypes(c.Request.Context(), false)
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"itemTypes": types})
}

func (tc *ItemTypeController) Update(c *gin.Context) {
	var in struct {
		Name        *string `json:"name"`
		ImageURL    *string `json:"imageUrl"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	set := map[string]any{}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.ImageURL != nil {
		set["image_url"] = *in.ImageURL
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "empty patch"})
		return
	}
	it, err := tc.Repo.UpdateItemType(c.Request.Context(), c.Param("id"), set)
	if err != nil {
		tc.fail(c, err)
		return
	}
	tc.logAction(c, models.ActionUpdateItemType, nil, datatypes.JSONMap{"id": it.ID})
	c.JSON(http.StatusOK, it)
}

func (tc *ItemTypeController) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := tc.Repo.DeleteItemType(c.Request.Context(), id); err != nil {
		tc.fail(c, err)
		return
	}
	tc.logAction(c, models.ActionDeleteItemType, nil, datatypes.JSONMap{"id": id})
	c.JSON(http.StatusOK, app.H{"status": "success"})
}
