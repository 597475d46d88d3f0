package routes

import (
	"github.com/gin-gonic/gin"

	"rental_backend/app"
	"rental_backend/controllers"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	sessionCtl := controllers.NewSessionController(s)
	itemTypeCtl := controllers.NewItemTypeController(s)
	itemCtl := controllers.NewItemController(s)
	strikeCtl := controllers.NewStrikeController(s)
	eventCtl := controllers.NewEventController(s)

	authMW := app.AuthRequired(a.AuthSessions())
	adminMW := app.AdminOnly()
	sweepMW := app.TriggerSweep(a.Sweeper, a.RDB, a.Config.SweepThrottle, a.Log)

	// Catalog: browsing is public, mutation is staff-only.
	itemTypes := r.Group("/api/item-types")
	{
		itemTypes.GET("", itemTypeCtl.List)
		itemTypes.GET("/:id", itemTypeCtl.Get)
	}
	itemTypesAdmin := r.Group("/api/item-types", authMW, adminMW)
	{
		itemTypesAdmin.POST("", itemTypeCtl.Create)
		itemTypesAdmin.PATCH("/:id", itemTypeCtl.Update)
		itemTypesAdmin.DELETE("/:id", itemTypeCtl.Delete)
	}

	items := r.Group("/api/items", authMW)
	{
		items.GET("", itemCtl.List)
		items.GET("/:id", itemCtl.Get)
	}
	itemsAdmin := r.Group("/api/items", authMW, adminMW)
	{
		itemsAdmin.POST("", itemCtl.Create)
		itemsAdmin.PATCH("/:id", itemCtl.UpdateAvailability)
		itemsAdmin.DELETE("/:id", itemCtl.Delete)
	}

	// Rental sessions. The sweep middleware reconciles stale sessions before
	// any read or transition.
	sessions := r.Group("/api/rental-sessions", authMW, sweepMW)
	{
		sessions.POST("/:itemTypeId", sessionCtl.Create)
		sessions.GET("/user/:userId", sessionCtl.ListByUser)
		sessions.GET("/:id", sessionCtl.Get)
		sessions.DELETE("/:id/cancel", sessionCtl.Cancel)
	}
	sessionsAdmin := r.Group("/api/rental-sessions", authMW, adminMW, sweepMW)
	{
		sessionsAdmin.GET("", sessionCtl.List)
		sessionsAdmin.PATCH("/:id/start", sessionCtl.Start)
		sessionsAdmin.PATCH("/:id/return", sessionCtl.Return)
		sessionsAdmin.PATCH("/:id", sessionCtl.Update)
		sessionsAdmin.DELETE("/:id", sessionCtl.Delete)
	}

	// Strikes.
	strikes := r.Group("/api/strikes", authMW)
	{
		strikes.GET("/user/:userId", strikeCtl.ListByUser)
	}
	strikesAdmin := r.Group("/api/strikes", authMW, adminMW)
	{
		strikesAdmin.POST("", strikeCtl.Create)
		strikesAdmin.GET("", strikeCtl.List)
		strikesAdmin.DELETE("/:id", strikeCtl.Delete)
	}

	// Audit trail (staff only).
	events := r.Group("/api/events", authMW, adminMW)
	{
		events.GET("", eventCtl.List)
		events.GET("/:id", eventCtl.Get)
	}
}
