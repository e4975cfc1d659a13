package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skillpath-labs/skillpath-api/internal/models"
	"github.com/skillpath-labs/skillpath-api/internal/service"
	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
	"github.com/skillpath-labs/skillpath-api/pkg/export"
	"github.com/skillpath-labs/skillpath-api/pkg/response"
)

// AIHandler exposes the prompt-proxy endpoints.
type AIHandler struct {
	service  *service.AIService
	exporter *export.PDFExporter
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(svc *service.AIService, exporter *export.PDFExporter) *AIHandler {
	return &AIHandler{service: svc, exporter: exporter}
}

// Industries godoc
// @Summary Generate industries
// @Tags AI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ai/industries [get]
func (h *AIHandler) Industries(c *gin.Context) {
	result, err := h.service.GenerateIndustries(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// JobRoles godoc
// @Summary Generate job roles and levels
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body models.JobRolesRequest true "Industry"
// @Success 200 {object} response.Envelope
// @Router /ai/job-roles [post]
func (h *AIHandler) JobRoles(c *gin.Context) {
	var req models.JobRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.GenerateJobRoles(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Skillset godoc
// @Summary Generate skillset
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body models.SkillsetRequest true "Role context"
// @Success 200 {object} response.Envelope
// @Router /ai/skillset [post]
func (h *AIHandler) Skillset(c *gin.Context) {
	var req models.SkillsetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.GenerateSkillset(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Quiz godoc
// @Summary Generate quiz
// @Tags AI
// @Accept json
// @Produce json
// @Param advanced query bool false "Advanced variant"
// @Param payload body models.QuizRequest true "Quiz context"
// @Success 200 {object} response.Envelope
// @Router /ai/quiz [post]
func (h *AIHandler) Quiz(c *gin.Context) {
	var req models.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.GenerateQuiz(c.Request.Context(), req, boolQuery(c, "advanced"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// EvaluateQuiz godoc
// @Summary Evaluate quiz
// @Tags AI
// @Accept json
// @Produce json
// @Param advanced query bool false "Advanced variant"
// @Param payload body models.EvaluateQuizRequest true "Answers and quiz data"
// @Success 200 {object} response.Envelope
// @Router /ai/quiz/evaluate [post]
func (h *AIHandler) EvaluateQuiz(c *gin.Context) {
	var req models.EvaluateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.EvaluateQuiz(c.Request.Context(), req, boolQuery(c, "advanced"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Platforms godoc
// @Summary Generate learning platforms
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body models.PlatformsRequest true "Role context"
// @Success 200 {object} response.Envelope
// @Router /ai/platforms [post]
func (h *AIHandler) Platforms(c *gin.Context) {
	var req models.PlatformsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.GeneratePlatforms(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// LearningPath godoc
// @Summary Generate learning path
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body models.LearningPathRequest true "User context"
// @Success 200 {object} response.Envelope
// @Router /ai/learning-path [post]
func (h *AIHandler) LearningPath(c *gin.Context) {
	var req models.LearningPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.GenerateLearningPath(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportLearningPath godoc
// @Summary Export learning path as PDF
// @Tags AI
// @Accept json
// @Produce application/pdf
// @Param payload body models.LearningPathDocument true "Learning path"
// @Success 200 {file} binary
// @Router /ai/learning-path/export [post]
func (h *AIHandler) ExportLearningPath(c *gin.Context) {
	var doc models.LearningPathDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	pdf, err := h.exporter.RenderLearningPath(doc.LearningPath, "Personalized Learning Path")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "learning path could not be rendered"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="learning-path.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func boolQuery(c *gin.Context, key string) bool {
	val, err := strconv.ParseBool(c.DefaultQuery(key, "false"))
	return err == nil && val
}
