package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mookzZ/fast-websockets/internal/auth"
	"github.com/mookzZ/fast-websockets/internal/domain"
	"github.com/mookzZ/fast-websockets/internal/repository"
	"github.com/mookzZ/fast-websockets/internal/service"
	"github.com/mookzZ/fast-websockets/pkg/log"
	"github.com/mookzZ/fast-websockets/pkg/response"
)

// Handler handles the REST surface: accounts and chat management.
type Handler struct {
	management     service.ManagementService
	authMiddleware *auth.Middleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(management service.ManagementService, authMiddleware *auth.Middleware) *Handler {
	return &Handler{
		management:     management,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all REST routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", h.authMiddleware.RequireAuth(), h.GetMe)
		}

		chats := api.Group("/chats")
		chats.Use(h.authMiddleware.RequireAuth())
		{
			chats.POST("", h.CreateChat)
			chats.GET("", h.ListChats)
			chats.GET("/:chat_id", h.GetChat)
			chats.POST("/:chat_id/members", h.AddMember)
			chats.DELETE("/:chat_id/members/:user_id", h.RemoveMember)
			chats.GET("/:chat_id/messages", h.ListMessages)
		}
	}
}

// Register handles user registration.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.management.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			response.Conflict(c, "username already taken")
			return
		}
		l.Error().Err(err).Msg("registration failed")
		response.InternalError(c, "failed to register")
		return
	}

	response.Created(c, user)
}

// Login exchanges credentials for an access token.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.management.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid username or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, result)
}

// GetMe returns the authenticated user.
func (h *Handler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := auth.GetUserID(c)

	user, err := h.management.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("get user failed")
		response.InternalError(c, "failed to get user")
		return
	}

	response.Success(c, user)
}

// CreateChat creates a group or private chat.
func (h *Handler) CreateChat(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	callerID := auth.GetUserID(c)

	var req domain.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create chat request")
		response.BadRequest(c, err.Error())
		return
	}

	chat, err := h.management.CreateChat(ctx, callerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			response.BadRequest(c, err.Error())
		case errors.Is(err, repository.ErrUserNotFound):
			response.NotFound(c, "target user not found")
		default:
			l.Error().Err(err).Msg("create chat failed")
			response.InternalError(c, "failed to create chat")
		}
		return
	}

	response.Created(c, chat)
}

// ListChats returns every chat the caller belongs to.
func (h *Handler) ListChats(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	callerID := auth.GetUserID(c)

	chats, err := h.management.ListChats(ctx, callerID)
	if err != nil {
		l.Error().Err(err).Msg("list chats failed")
		response.InternalError(c, "failed to list chats")
		return
	}

	response.Success(c, chats)
}

// GetChat returns one chat the caller belongs to.
func (h *Handler) GetChat(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	callerID := auth.GetUserID(c)

	chatID, ok := paramInt64(c, "chat_id")
	if !ok {
		return
	}

	chat, err := h.management.GetChat(ctx, chatID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrChatNotFound):
			response.NotFound(c, "chat not found")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "you are not a member of this chat")
		default:
			l.Error().Err(err).Int64(log.FieldChatID, chatID).Msg("get chat failed")
			response.InternalError(c, "failed to get chat")
		}
		return
	}

	response.Success(c, chat)
}

// AddMember invites a user into a group chat.
func (h *Handler) AddMember(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	callerID := auth.GetUserID(c)

	chatID, ok := paramInt64(c, "chat_id")
	if !ok {
		return
	}

	var req domain.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid add member request")
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.management.AddMember(ctx, chatID, callerID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrChatNotFound):
			response.NotFound(c, "chat not found")
		case errors.Is(err, repository.ErrUserNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, repository.ErrAlreadyMember):
			response.Conflict(c, "user is already a member of this chat")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "only the chat creator may add members")
		case errors.Is(err, service.ErrInvalidRequest):
			response.BadRequest(c, err.Error())
		default:
			l.Error().Err(err).Int64(log.FieldChatID, chatID).Msg("add member failed")
			response.InternalError(c, "failed to add member")
		}
		return
	}

	response.Created(c, member)
}

// RemoveMember removes a user from a group chat.
func (h *Handler) RemoveMember(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	callerID := auth.GetUserID(c)

	chatID, ok := paramInt64(c, "chat_id")
	if !ok {
		return
	}
	userID, ok := paramInt64(c, "user_id")
	if !ok {
		return
	}

	if err := h.management.RemoveMember(ctx, chatID, callerID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrChatNotFound):
			response.NotFound(c, "chat not found")
		case errors.Is(err, repository.ErrMemberNotFound):
			response.NotFound(c, "user is not a member of this chat")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "only the chat creator may remove members")
		case errors.Is(err, service.ErrInvalidRequest):
			response.BadRequest(c, err.Error())
		default:
			l.Error().Err(err).Int64(log.FieldChatID, chatID).Msg("remove member failed")
			response.InternalError(c, "failed to remove member")
		}
		return
	}

	response.NoContent(c)
}

// ListMessages returns a chat's message history.
func (h *Handler) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	callerID := auth.GetUserID(c)

	chatID, ok := paramInt64(c, "chat_id")
	if !ok {
		return
	}

	messages, err := h.management.ListMessages(ctx, chatID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrChatNotFound):
			response.NotFound(c, "chat not found")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "you are not a member of this chat")
		default:
			l.Error().Err(err).Int64(log.FieldChatID, chatID).Msg("list messages failed")
			response.InternalError(c, "failed to list messages")
		}
		return
	}

	response.Success(c, messages)
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
