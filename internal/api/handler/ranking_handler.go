package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-blog/internal/service"
	"github.com/d60-Lab/social-blog/pkg/logger"
	"github.com/d60-Lab/social-blog/pkg/response"
)

// LikeBlog 点赞 / 取消点赞
// @Summary 切换点赞
// @Description 计数写入暂时失败时返回 202，不影响页面
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Success 200 {object} response.Response{data=service.LikeResult}
// @Success 202 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/blogs/{id}/like [post]
func (h *Handler) LikeBlog(c *gin.Context) {
	blogID := c.Param("id")
	res, err := h.rankingService.Like(c.Request.Context(), principal(c), blogID)
	if service.IsAbsorbable(err) {
		logger.Warn("like absorbed", zap.String("blog_id", blogID), zap.Error(err))
		response.Accepted(c)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

// RecordView 记录一次浏览（异步）
// @Summary 记录浏览
// @Tags 互动
// @Param id path string true "内容ID"
// @Success 202 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /api/v1/blogs/{id}/views [post]
func (h *Handler) RecordView(c *gin.Context) {
	h.views.Enqueue(c.Param("id"))
	response.Accepted(c)
}

// TrendingBlogs 热门内容
// @Summary 热门内容
// @Tags 排行
// @Produce json
// @Param limit query int false "数量"
// @Success 200 {object} response.Response{data=[]model.Blog}
// @Router /api/v1/trending/blogs [get]
func (h *Handler) TrendingBlogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.rankingService.TrendingContent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"list": list})
}

// TrendingGenres 热门题材
// @Summary 热门题材
// @Tags 排行
// @Produce json
// @Param limit query int false "数量"
// @Success 200 {object} response.Response{data=[]service.GenreTrend}
// @Router /api/v1/trending/genres [get]
func (h *Handler) TrendingGenres(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.rankingService.TrendingGenres(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"list": list})
}

// Feed 关注流
// @Summary 关注流
// @Tags 排行
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/feed [get]
func (h *Handler) Feed(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.feedService.Feed(c.Request.Context(), principal(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
