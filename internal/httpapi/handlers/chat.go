package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/gopherchat/internal/common"
)

func (h *Handler) State(c *gin.Context) {
	_, ctrl, ok := h.session(c)
	if !ok {
		return
	}
	common.OK(c, ctrl.Snapshot())
}

type createConversationReq struct {
	Message string `json:"message"`
}

func (h *Handler) CreateConversation(c *gin.Context) {
	_, ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req createConversationReq
	_ = c.ShouldBindJSON(&req) // allow empty {}

	id, err := ctrl.NewConversation(c.Request.Context(), req.Message)
	if err != nil {
		failErr(c, err)
		return
	}
	common.OK(c, gin.H{
		"conversation_id": id,
		"state":           ctrl.Snapshot(),
	})
}

func (h *Handler) SelectConversation(c *gin.Context) {
	_, ctrl, ok := h.session(c)
	if !ok {
		return
	}
	if err := ctrl.Select(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	common.OK(c, ctrl.Snapshot())
}

type renameReq struct {
	Title string `json:"title"`
}

func (h *Handler) RenameConversation(c *gin.Context) {
	_, ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := ctrl.Rename(c.Request.Context(), c.Param("id"), req.Title); err != nil {
		failErr(c, err)
		return
	}
	common.OK(c, ctrl.Snapshot())
}

type sendMessageReq struct {
	// ConversationID selects a conversation before sending. Empty sends into
	// the active one.
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	_, ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	ctx := c.Request.Context()
	if req.ConversationID != "" && req.ConversationID != ctrl.Snapshot().ActiveID {
		if err := ctrl.Select(ctx, req.ConversationID); err != nil {
			failErr(c, err)
			return
		}
	}
	if err := ctrl.Send(ctx, req.Message); err != nil {
		failErr(c, err)
		return
	}
	common.OK(c, ctrl.Snapshot())
}

func (h *Handler) DismissNotice(c *gin.Context) {
	_, ctrl, ok := h.session(c)
	if !ok {
		return
	}
	ctrl.DismissNotice()
	common.OK(c, ctrl.Snapshot())
}
