package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/homai-tivo/pkg/api/handlers"
	"github.com/urmzd/homai-tivo/pkg/device"
	"github.com/urmzd/homai-tivo/pkg/metrics"
)

// Router serves the REST API, Swagger UI, metrics and the event stream.
type Router struct {
	engine     *gin.Engine
	controller device.Controller
	subscriber device.EventSubscriber
}

func NewRouter(controller device.Controller, subscriber device.EventSubscriber) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:     gin.New(),
		controller: controller,
		subscriber: subscriber,
	}
	SetupMiddleware(r.engine)

	r.mountDocs()
	health := handlers.NewHealthHandler(controller).Health
	r.engine.GET("/health", health)
	r.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.engine.Group("/api/v1")
	v1.GET("/health", health)
	v1.GET("/events", handlers.NewEventsHandler(subscriber).Events)
	r.mountDevices(v1.Group("/devices"))
	r.mountListings(v1.Group("/listings"))

	return r
}

func (r *Router) mountDocs() {
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}

func (r *Router) mountDevices(g *gin.RouterGroup) {
	dh := handlers.NewDevicesHandler(r.controller)
	g.GET("", dh.ListDevices)
	g.POST("", dh.AddDevice)
	g.GET("/:id", dh.GetDevice)
	g.PATCH("/:id", dh.RenameDevice)
	g.DELETE("/:id", dh.RemoveDevice)

	ch := handlers.NewControlHandler(r.controller)
	g.GET("/:id/state", ch.GetState)
	g.POST("/:id/state", ch.SetState)
}

func (r *Router) mountListings(g *gin.RouterGroup) {
	lh := handlers.NewListingsHandler(r.controller)
	g.GET("/channels", lh.ListChannels)
	g.GET("/channels/:channel", lh.GetChannel)
	g.POST("/refresh", lh.Refresh)
}

// Handler returns the engine for use with an http.Server.
func (r *Router) Handler() http.Handler {
	return r.engine
}
