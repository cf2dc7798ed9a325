package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/common"
	"github.com/suPer8Hu/gopherchat/internal/controller"
	"github.com/suPer8Hu/gopherchat/internal/httpapi/middleware"
)

type Accounts interface {
	Register(ctx context.Context, email, password, displayName, avatarURL string) (*auth.User, error)
}

type ActivityReader interface {
	Activity(ctx context.Context, userID string) (map[string]time.Time, error)
}

type Handler struct {
	Accounts Accounts
	Hub      *Hub
	// ActivityStore is nil when no Redis is configured.
	ActivityStore ActivityReader
}

func NewHandler(accounts Accounts, hub *Hub, activity ActivityReader) *Handler {
	return &Handler{Accounts: accounts, Hub: hub, ActivityStore: activity}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"message": "pong"})
}

func (h *Handler) sessionOnly(c *gin.Context) (*auth.Session, bool) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
	}
	return sess, ok
}

// session resolves the caller's session and controller, failing the request
// when AuthRequired did not run.
func (h *Handler) session(c *gin.Context) (*auth.Session, *controller.Controller, bool) {
	sess, ok := h.sessionOnly(c)
	if !ok {
		return nil, nil, false
	}
	return sess, h.Hub.Get(c.Request.Context(), sess), true
}
