package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"rental_backend/app"
	"rental_backend/models"
)

type ItemController struct{ *Srv }

func NewItemController(s *Srv) *ItemController { return &ItemController{Srv: s} }

func (ic *ItemController) Create(c *gin.Context) {
	var in struct {
		TypeID      string `json:"typeId" binding:"required"`
		IsAvailable bool   `json:"isAvailable"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ok, err := ic.Repo.ItemTypeExists(c.Request.Context(), in.TypeID)
	if err != nil {
		ic.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, app.H{"error": "item type not found"})
		return
	}
	it := &models.Item{ID: uuid.NewString(), TypeID: in.TypeID, IsAvailable: in.IsAvailable}
	if err := ic.Repo.CreateItem(c.Request.Context(), it); err != nil {
		ic.fail(c, err)
		return
	}
	ic.logAction(c, models.ActionCreateItem, nil, datatypes.JSONMap{"id": it.ID, "type_id": it.TypeID})
	c.JSON(http.StatusCreated, it)
}

func (ic *ItemController) Get(c *gin.Context) {
	it, err := ic.Repo.FindItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		ic.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// List returns items, optionally narrowed to one type via ?type_id=.
func (ic *ItemController) List(c *gin.Context) {
	items, err := ic.Repo.ListItems(c.Request.Context(), c.Query("type_id"), false)
	if err != nil {
		ic.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

// UpdateAvailability force-sets the availability flag. This is a staff repair
// tool; normal availability changes happen through the session lifecycle.
func (ic *ItemController) UpdateAvailability(c *gin.Context) {
	available := c.Query("is_available") == "true"
	it, err := ic.Repo.SetItemAvailability(c.Request.Context(), c.Param("id"), available)
	if err != nil {
		ic.fail(c, err)
		return
	}
	ic.logAction(c, models.ActionUpdateItem, nil, datatypes.JSONMap{"id": it.ID, "is_available": available})
	c.JSON(http.StatusOK, it)
}

func (ic *ItemController) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := ic.Repo.DeleteItem(c.Request.Context(), id); err != nil {
		ic.fail(c, err)
		return
	}
	ic.logAction(c, models.ActionDeleteItem, nil, datatypes.JSONMap{"id": id})
	c.JSON(http.StatusOK, app.H{"status": "success"})
}
