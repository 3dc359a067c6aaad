package controller

import (
	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService    *service.QuizService
	AttemptService *service.AttemptService
}

func NewQuizController(quizService *service.QuizService, attemptService *service.AttemptService) *QuizController {
	return &QuizController{QuizService: quizService, AttemptService: attemptService}
}

// @Summary 生成测验
// @Description 按分类/子分类调用题目生成服务，创建一个新测验
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GenerateQuizRequest true "生成参数"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /quiz/generate [post]
func (c *QuizController) Generate(ctx *gin.Context) {
	var req service.GenerateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.Generate(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"quiz_id":    quiz.ID,
		"title":      quiz.Title,
		"questions":  len(quiz.QuestionTemplates),
		"time_limit": quiz.TimeLimit,
	})
}

// @Summary 开始作答
// @Description 为当前用户创建一次作答，所有题目初始为未作答
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /quiz/{id}/start [post]
func (c *QuizController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.AttemptService.Start(ctx.Request.Context(), ctx.Param("id"), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"attempt": attempt})
}
