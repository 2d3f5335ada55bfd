package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/apierr"
	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/service"
)

type SettingsHandler struct {
	settings  SettingsService
	reminders ReminderService
	links     TelegramLinkService
}

func NewSettingsHandler(settings SettingsService, reminders ReminderService, links TelegramLinkService) *SettingsHandler {
	return &SettingsHandler{settings: settings, reminders: reminders, links: links}
}

// GET /settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	s, err := h.settings.GetOrCreate(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// PATCH /settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var patch entities.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	s, err := h.settings.Update(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// GET /reminders
func (h *SettingsHandler) GetReminders(c *gin.Context) {
	r, err := h.reminders.GetOrCreate(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": r})
}

// PUT /reminders
func (h *SettingsHandler) UpdateReminders(c *gin.Context) {
	var patch service.RemindersPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	r, err := h.reminders.Update(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": r})
}

// POST /reminders/telegram/link
func (h *SettingsHandler) CreateTelegramLink(c *gin.Context) {
	invite, err := h.links.CreateLink(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"link": invite})
}
