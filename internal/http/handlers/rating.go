package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/contactos-backend/internal/http/response"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/services"
)

type RatingHandler struct {
	log     *logger.Logger
	ratings services.RatingService
}

func NewRatingHandler(log *logger.Logger, ratingService services.RatingService) *RatingHandler {
	return &RatingHandler{log: log.With("handler", "RatingHandler"), ratings: ratingService}
}

// POST /api/contactos/:id/ratings
// body: [{"categoria": "...", "calificacion": 1..5, "comentario": "..."}]
func (h *RatingHandler) Submit(c *gin.Context) {
	req, err := bindRatings(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	out, err := h.ratings.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/contactos/:id/ratings
func (h *RatingHandler) List(c *gin.Context) {
	out, err := h.ratings.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}
