package message

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/message"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type Handler struct {
	svc *message.Service
}

func NewHandler(svc *message.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	messages := r.Group("/messages", authMW.Authenticate(), middleware.NoStore())
	{
		messages.GET("", h.Inbox)
		messages.GET("/:userId", h.Conversation)
		messages.POST("", h.Send)
	}
}

func (h *Handler) Inbox(c *gin.Context) {
	inbox, err := h.svc.Inbox(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"conversations": inbox})
}

func (h *Handler) Conversation(c *gin.Context) {
	thread, err := h.svc.Conversation(c.Request.Context(), middleware.CurrentUser(c), c.Param("userId"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"messages": thread})
}

func (h *Handler) Send(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, gin.H{"message": msg})
}
