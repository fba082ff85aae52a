package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchpulse/internal/domain"
	"matchpulse/internal/http/dto"
	"matchpulse/internal/http/resp"
)

func (h *Handler) Teams(c *gin.Context) {
	region := c.Query("region")
	if region == "" {
		region = h.cfg.TeamsRegion
	}
	teams, err := h.catalog.Teams(c.Request.Context(), region)
	if err != nil {
		h.catalogError(c, err, "teams unavailable")
		return
	}
	c.JSON(http.StatusOK, dto.TeamsResponse{Region: region, Items: teams})
}

func (h *Handler) News(c *gin.Context) {
	news, err := h.catalog.News(c.Request.Context())
	if err != nil {
		h.catalogError(c, err, "news unavailable")
		return
	}
	c.JSON(http.StatusOK, dto.NewsResponse{Items: news})
}

func (h *Handler) catalogError(c *gin.Context, err error, msg string) {
	if errors.Is(err, domain.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Code: resp.CodeUnavailable, Message: msg})
		return
	}
	h.log.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: msg})
}
