// Package web exposes the matching engine and push registry over HTTP.
package web

import (
	"github.com/gin-gonic/gin"

	"github.com/recallguard/recallguard/internal/core"
	"github.com/recallguard/recallguard/internal/notify"
)

// Server is the RecallGuard API server.
type Server struct {
	engine     *core.Engine
	store      core.Storage
	dispatcher *notify.Dispatcher
	transport  *notify.WebPushTransport
	router     *gin.Engine
}

// NewServer creates the API server and registers routes.
func NewServer(engine *core.Engine, store core.Storage, dispatcher *notify.Dispatcher, transport *notify.WebPushTransport) *Server {
	router := gin.Default()

	s := &Server{
		engine:     engine,
		store:      store,
		dispatcher: dispatcher,
		transport:  transport,
		router:     router,
	}

	api := router.Group("/api")
	{
		api.POST("/push/subscribe", s.handleSubscribe)
		api.POST("/push/unsubscribe", s.handleUnsubscribe)
		api.GET("/push/status", s.handlePushStatus)

		api.POST("/match", s.handleMatch)

		api.GET("/alerts", s.handleListAlerts)
		api.POST("/alerts/:id/dismiss", s.handleDismissAlert)
		api.POST("/alerts/:id/resolve", s.handleResolveAlert)

		api.GET("/items", s.handleListItems)
		api.POST("/items", s.handleCreateItem)
		api.POST("/items/:id/toggle", s.handleToggleItem)
		api.DELETE("/items/:id", s.handleDeleteItem)

		api.POST("/recalls", s.handleIngestRecalls)

		api.GET("/status", s.handleStatus)
	}

	return s
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the underlying router (for tests).
func (s *Server) Router() *gin.Engine {
	return s.router
}
