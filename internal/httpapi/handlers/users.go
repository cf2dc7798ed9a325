package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/common"
)

type createUserReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	user, err := h.Accounts.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName, req.AvatarURL)
	if err != nil {
		failErr(c, err)
		return
	}
	common.OK(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req auth.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	sess, ctrl, err := h.Hub.SignIn(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}

	common.OK(c, gin.H{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
		"user":       sess.User,
		"state":      ctrl.Snapshot(),
	})
}

func (h *Handler) Logout(c *gin.Context) {
	sess, ok := h.sessionOnly(c)
	if !ok {
		return
	}
	h.Hub.SignOut(c.Request.Context(), sess)
	common.OK(c, nil)
}

func (h *Handler) Me(c *gin.Context) {
	sess, ok := h.sessionOnly(c)
	if !ok {
		return
	}
	common.OK(c, sess.User)
}

// Activity lists the last change time per conversation, recorded by the
// event worker.
func (h *Handler) Activity(c *gin.Context) {
	sess, ok := h.sessionOnly(c)
	if !ok {
		return
	}
	if h.ActivityStore == nil {
		common.Fail(c, http.StatusNotFound, 40402, "activity tracking is disabled")
		return
	}
	act, err := h.ActivityStore.Activity(c.Request.Context(), sess.User.ID)
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 50203, "failed to load activity")
		return
	}
	common.OK(c, act)
}
