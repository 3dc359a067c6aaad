package controller

import (
	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService   *service.AttemptService
	AnalyticsService *service.AnalyticsService
}

func NewAttemptController(attemptService *service.AttemptService, analyticsService *service.AnalyticsService) *AttemptController {
	return &AttemptController{AttemptService: attemptService, AnalyticsService: analyticsService}
}

// AnswerRequest selected 可以是数字或数字字符串，0 起或 1 起均可
type AnswerRequest struct {
	QuestionID string      `json:"question_id" binding:"required"`
	Selected   interface{} `json:"selected"`
}

// @Summary 作答详情
// @Tags 作答
// @Produce json
// @Security BearerAuth
// @Param id path string true "作答ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /attempt/{id}/details [get]
func (c *AttemptController) Details(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	details, err := c.AttemptService.Details(ctx.Request.Context(), ctx.Param("id"), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, details)
}

// @Summary 提交答案
// @Description 记录选项并按最近三题调整难度
// @Tags 作答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "作答ID"
// @Param request body AnswerRequest true "答案"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /attempt/{id}/answer [post]
func (c *AttemptController) Answer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AttemptService.Answer(ctx.Request.Context(), ctx.Param("id"), user.UserID, req.QuestionID, req.Selected)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 完成作答
// @Description 计算按难度加权的最终得分；重复调用返回已冻结的分数
// @Tags 作答
// @Produce json
// @Security BearerAuth
// @Param id path string true "作答ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /attempt/{id}/finish [post]
func (c *AttemptController) Finish(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	score, err := c.AttemptService.Finish(ctx.Request.Context(), ctx.Param("id"), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"score": score})
}

// @Summary 单次作答分析
// @Tags 作答
// @Produce json
// @Security BearerAuth
// @Param id path string true "作答ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /attempt/{id}/analytics [get]
func (c *AttemptController) Analytics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	analytics, err := c.AnalyticsService.AttemptAnalytics(ctx.Param("id"), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, analytics)
}
