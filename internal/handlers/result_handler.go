package handlers

import (
	"net/http"

	"examportal/internal/services"
	"examportal/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	*BaseHandler
	resultService services.ResultService
}

func NewResultHandler(base *BaseHandler, resultService services.ResultService) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   base,
		resultService: resultService,
	}
}

// POST /api/results (verified student)
func (h *ResultHandler) Record(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RecordResultRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.resultService.RecordResult(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GET /api/results/mine
func (h *ResultHandler) Mine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	results, err := h.resultService.ResultsForUser(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GET /api/results/exam/:id (admin)
func (h *ResultHandler) ByExam(c *gin.Context) {
	examID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	results, err := h.resultService.ResultsForExam(h.GetDB(c), examID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GET /api/results/exam/:id/cheating-events (admin)
func (h *ResultHandler) CheatingEvents(c *gin.Context) {
	examID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	events, err := h.resultService.CheatingEventsForExam(h.GetDB(c), examID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}
