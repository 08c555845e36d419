package handlers

import (
	"net/http"

	"examportal/internal/services"
	"examportal/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ExamHandler struct {
	*BaseHandler
	examService services.ExamService
}

func NewExamHandler(base *BaseHandler, examService services.ExamService) *ExamHandler {
	return &ExamHandler{
		BaseHandler: base,
		examService: examService,
	}
}

// POST /api/exams (admin)
func (h *ExamHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateExamRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	exam, err := h.examService.CreateExam(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// PUT /api/exams/:id (admin)
func (h *ExamHandler) Update(c *gin.Context) {
	examID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateExamRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	exam, err := h.examService.UpdateExam(h.GetDB(c), examID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// DELETE /api/exams/:id (admin)
func (h *ExamHandler) Delete(c *gin.Context) {
	examID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.DeleteExam(h.GetDB(c), examID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Exam deleted"})
}

// GET /api/exams/all (admin). Full shape, correct options included.
func (h *ExamHandler) ListAll(c *gin.Context) {
	exams, err := h.examService.ListExams(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exams)
}

// GET /api/exams/:id/full (admin)
func (h *ExamHandler) GetFull(c *gin.Context) {
	examID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetExam(h.GetDB(c), examID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// GET /api/exams (verified student). Active exams, no questions.
func (h *ExamHandler) ListAvailable(c *gin.Context) {
	views, err := h.examService.ListAvailable(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// GET /api/exams/:id (verified student). Questions without correct options.
func (h *ExamHandler) Get(c *gin.Context) {
	examID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	view, err := h.examService.StudentView(h.GetDB(c), examID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// POST /api/exams/:id/questions (admin)
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	examID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	var req dto.CreateQuestionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	question, err := h.examService.AddQuestion(h.GetDB(c), examID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// PUT /api/questions/:id (admin)
func (h *ExamHandler) UpdateQuestion(c *gin.Context) {
	questionID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	var req dto.CreateQuestionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	question, err := h.examService.UpdateQuestion(h.GetDB(c), questionID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DELETE /api/questions/:id (admin)
func (h *ExamHandler) DeleteQuestion(c *gin.Context) {
	questionID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.DeleteQuestion(h.GetDB(c), questionID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Question deleted"})
}
