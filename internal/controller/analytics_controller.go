package controller

import (
	"strconv"

	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// @Summary 用户仪表盘
// @Description 作答总数、平均分和最近5次作答
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /user/dashboard [get]
func (c *AnalyticsController) GetDashboard(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	dashboard, err := c.AnalyticsService.Dashboard(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, dashboard)
}

// @Summary 学习进度
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /user/progress [get]
func (c *AnalyticsController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	points, err := c.AnalyticsService.Progress(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, points)
}

// @Summary 用户综合分析
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /user/analytics [get]
func (c *AnalyticsController) GetUserAnalytics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	analytics, err := c.AnalyticsService.UserAnalytics(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, analytics)
}

// @Summary 排行榜
// @Description 已完成作答的平均分排名
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Param limit query int false "返回数量" default(20)
// @Success 200 {object} util.Response
// @Router /leaderboard [get]
func (c *AnalyticsController) GetLeaderboard(ctx *gin.Context) {
	limit := 20
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	entries, err := c.AnalyticsService.Leaderboard(ctx.Request.Context(), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, entries)
}
