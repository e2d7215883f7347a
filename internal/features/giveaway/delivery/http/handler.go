// Package http exposes the admin surface of the giveaway engine: creation,
// approval, force-end, rerolls and templates. Participant joins go through
// the Discord buttons, not through here.
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "discord-giveaway-bot/internal/common/errors"
	"discord-giveaway-bot/internal/common/middleware"
	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
	"discord-giveaway-bot/internal/features/giveaway/service"
	"discord-giveaway-bot/internal/utils/duration"
)

type Handler struct {
	giveaways *service.GiveawayService
	rerolls   *service.RerollService
	log       zerolog.Logger
}

func NewHandler(giveaways *service.GiveawayService, rerolls *service.RerollService, log zerolog.Logger) *Handler {
	return &Handler{
		giveaways: giveaways,
		rerolls:   rerolls,
		log:       log.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)

	api := router.Group("/api/v1")
	{
		giveaways := api.Group("/giveaways")
		{
			giveaways.POST("", h.createGiveaway)
			giveaways.GET("", h.listGiveaways)
			giveaways.GET("/:id", h.getGiveaway)
			giveaways.POST("/:id/approve", h.approveGiveaway)
			giveaways.POST("/:id/force-end", h.forceEndGiveaway)
		}

		api.POST("/rerolls/:message_id", h.reroll)

		templates := api.Group("/guilds/:guild_id/templates")
		{
			templates.POST("", h.saveTemplate)
			templates.GET("", h.listTemplates)
			templates.GET("/:name", h.getTemplate)
			templates.DELETE("/:name", h.deleteTemplate)
			templates.POST("/:name/start", h.startFromTemplate)
		}
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
}

type createGiveawayRequest struct {
	GuildID     string              `json:"guild_id" binding:"required"`
	ChannelID   string              `json:"channel_id" binding:"required"`
	Kind        models.GiveawayKind `json:"kind"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	ExtraFields []models.ExtraField `json:"extra_fields"`
	CreatedBy   string              `json:"created_by" binding:"required"`
	Duration    string              `json:"duration" binding:"required"`
	WinnerCount int                 `json:"winner_count" binding:"required"`
	ForceStart  bool                `json:"force_start"`
	Pending     bool                `json:"pending"`
}

func (h *Handler) createGiveaway(c *gin.Context) {
	var req createGiveawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid request body"))
		return
	}

	g, err := h.giveaways.Create(c.Request.Context(), service.CreateInput{
		GuildID:     req.GuildID,
		ChannelID:   req.ChannelID,
		Kind:        req.Kind,
		Title:       req.Title,
		Description: req.Description,
		ExtraFields: req.ExtraFields,
		CreatedBy:   req.CreatedBy,
		Duration:    req.Duration,
		WinnerCount: req.WinnerCount,
		ForceStart:  req.ForceStart,
		Pending:     req.Pending,
	})
	if err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "giveaway": g})
}

func (h *Handler) getGiveaway(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	g, err := h.giveaways.Get(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "giveaway": g})
}

func (h *Handler) listGiveaways(c *gin.Context) {
	guildID := c.Query("guild_id")
	if guildID == "" {
		h.sendError(c, apperrors.NewValidationError("guild_id", "query parameter is required"))
		return
	}

	list, err := h.giveaways.ListActive(c.Request.Context(), guildID)
	if err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "giveaways": list, "count": len(list)})
}

func (h *Handler) approveGiveaway(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	g, err := h.giveaways.Approve(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "giveaway": g})
}

func (h *Handler) forceEndGiveaway(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.giveaways.ForceEnd(c.Request.Context(), id); err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) reroll(c *gin.Context) {
	messageID := c.Param("message_id")

	winners, err := h.rerolls.Reroll(c.Request.Context(), messageID)
	if err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "winners": winners})
}

type saveTemplateRequest struct {
	Name        string              `json:"name" binding:"required"`
	Kind        models.GiveawayKind `json:"kind"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	ExtraFields []models.ExtraField `json:"extra_fields"`
	Duration    string              `json:"duration" binding:"required"`
	WinnerCount int                 `json:"winner_count" binding:"required"`
	ForceStart  bool                `json:"force_start"`
	CreatedBy   string              `json:"created_by"`
}

func (h *Handler) saveTemplate(c *gin.Context) {
	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid request body"))
		return
	}

	t := &models.Template{
		GuildID:     c.Param("guild_id"),
		Name:        req.Name,
		Kind:        req.Kind,
		Title:       req.Title,
		Description: req.Description,
		ExtraFields: req.ExtraFields,
		Duration:    req.Duration,
		WinnerCount: req.WinnerCount,
		ForceStart:  req.ForceStart,
		CreatedBy:   req.CreatedBy,
	}

	if err := h.giveaways.SaveTemplate(c.Request.Context(), t); err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "template": t})
}

func (h *Handler) listTemplates(c *gin.Context) {
	list, err := h.giveaways.ListTemplates(c.Request.Context(), c.Param("guild_id"))
	if err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "templates": list, "count": len(list)})
}

func (h *Handler) getTemplate(c *gin.Context) {
	t, err := h.giveaways.GetTemplate(c.Request.Context(), c.Param("guild_id"), c.Param("name"))
	if err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "template": t})
}

func (h *Handler) deleteTemplate(c *gin.Context) {
	if err := h.giveaways.DeleteTemplate(c.Request.Context(), c.Param("guild_id"), c.Param("name")); err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type startFromTemplateRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
	CreatedBy string `json:"created_by" binding:"required"`
}

func (h *Handler) startFromTemplate(c *gin.Context) {
	var req startFromTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid request body"))
		return
	}

	g, err := h.giveaways.CreateFromTemplate(c.Request.Context(), c.Param("guild_id"), c.Param("name"), req.ChannelID, req.CreatedBy)
	if err != nil {
		h.sendError(c, convertError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "giveaway": g})
}

func (h *Handler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.sendError(c, apperrors.NewValidationError("id", "must be an integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) sendError(c *gin.Context, appErr *apperrors.AppError) {
	middleware.SendError(c, appErr, h.log)
}

// convertError maps service and repository errors onto the typed AppError
// taxonomy the middleware knows how to render.
func convertError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, repository.ErrGiveawayNotFound):
		return apperrors.New(apperrors.ErrCodeGiveawayNotFound, "Giveaway does not exist")
	case errors.Is(err, repository.ErrTemplateNotFound):
		return apperrors.NewNotFoundError("template", nil)
	case errors.Is(err, service.ErrNoRerollData):
		return apperrors.New(apperrors.ErrCodeNotFound, "No reroll data available for this message")
	case errors.Is(err, service.ErrNoEligibleParticipants):
		return apperrors.New(apperrors.ErrCodeConflict, "No eligible participants left to reroll")
	case errors.Is(err, service.ErrNotPending):
		return apperrors.New(apperrors.ErrCodeConflict, "Giveaway is not awaiting approval")
	case errors.Is(err, duration.ErrInvalidDuration):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidDuration, "Invalid giveaway duration")
	case errors.Is(err, models.ErrInvalidWinners):
		return apperrors.NewValidationError("winner_count", "must be at least 1")
	case errors.Is(err, models.ErrGiveawayEnded):
		return apperrors.New(apperrors.ErrCodeGiveawayEnded, "Giveaway has already ended")
	case errors.Is(err, repository.ErrUpdateConflict):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "Concurrent update conflict, please retry")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Internal server error")
	}
}
