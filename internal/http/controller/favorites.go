package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchpulse/internal/domain"
	"matchpulse/internal/http/dto"
	"matchpulse/internal/http/resp"
	"matchpulse/internal/model"
)

func (h *Handler) Follow(c *gin.Context) {
	var req dto.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	subscriber := subscriberID(c, req.SubscriberID)

	fav, err := h.favorites.Follow(c.Request.Context(), subscriber, req.TeamID, req.TeamName)
	if err != nil {
		h.registryError(c, err, "follow failed", subscriber, req.TeamName)
		return
	}
	c.JSON(http.StatusCreated, fav)
}

func (h *Handler) Unfollow(c *gin.Context) {
	var req dto.UnfollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	subscriber := subscriberID(c, req.SubscriberID)

	removed, err := h.favorites.Unfollow(c.Request.Context(), subscriber, req.TeamName)
	if err != nil {
		h.registryError(c, err, "unfollow failed", subscriber, req.TeamName)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: "team is not followed"})
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Code: resp.CodeRemoved, Message: "unfollowed"})
}

func (h *Handler) ListFavorites(c *gin.Context) {
	subscriber := subscriberID(c, "")
	if subscriber == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "subscriberId required"})
		return
	}
	items, err := h.favorites.Following(c.Request.Context(), subscriber)
	if err != nil {
		h.registryError(c, err, "list favorites failed", subscriber, "")
		return
	}
	c.JSON(http.StatusOK, dto.FavoritesResponse{SubscriberID: subscriber, Items: items})
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	if req.Settings == nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "settings required"})
		return
	}
	subscriber := subscriberID(c, req.SubscriberID)

	var (
		fav  model.Favorite
		err  error
		team = req.TeamName
	)
	// teamName wins; teamId alone is looked up among the subscriber's favorites.
	if strings.TrimSpace(team) == "" && strings.TrimSpace(req.TeamID) != "" {
		team = req.TeamID
		fav, err = h.favorites.SetPreferencesByTeamID(c.Request.Context(), subscriber, req.TeamID, *req.Settings)
	} else {
		fav, err = h.favorites.SetPreferences(c.Request.Context(), subscriber, team, *req.Settings)
	}
	if err != nil {
		h.registryError(c, err, "update settings failed", subscriber, team)
		return
	}
	c.JSON(http.StatusOK, fav)
}

func (h *Handler) registryError(c *gin.Context, err error, msg, subscriber, team string) {
	switch {
	case errors.Is(err, domain.ErrInvalidFavorite):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "subscriberId and teamName or teamId are required"})
	case errors.Is(err, domain.ErrPreferenceNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: "team is not followed"})
	default:
		h.log.Error(msg,
			zap.String("subscriber_id", subscriber),
			zap.String("team", team),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: msg})
	}
}
