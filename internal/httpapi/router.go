package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/gopherchat/internal/common"
	"github.com/suPer8Hu/gopherchat/internal/httpapi/handlers"
	"github.com/suPer8Hu/gopherchat/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, verifier middleware.Verifier) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// accounts
	r.POST("/users", h.CreateUser)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(verifier))
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", h.Me)
	authGroup.GET("/activity", h.Activity)

	// chat (JWT required)
	authGroup.GET("/state", h.State)
	authGroup.POST("/conversations", h.CreateConversation)
	authGroup.POST("/conversations/:id/select", h.SelectConversation)
	authGroup.PATCH("/conversations/:id", h.RenameConversation)
	authGroup.POST("/messages", h.SendMessage)
	authGroup.DELETE("/notice", h.DismissNotice)
	return r
}
