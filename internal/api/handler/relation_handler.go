package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-blog/pkg/response"
)

// ToggleFollow 关注 / 取消关注
// @Summary 切换关注状态
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标账号ID"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/relations/{id}/toggle [post]
func (h *Handler) ToggleFollow(c *gin.Context) {
	res, err := h.relService.ToggleFollow(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

// FollowStats 关注数与粉丝数
// @Summary 关注统计
// @Tags 关系链
// @Produce json
// @Param id path string true "账号ID"
// @Success 200 {object} response.Response{data=service.FollowStats}
// @Router /api/v1/relations/{id}/stats [get]
func (h *Handler) FollowStats(c *gin.Context) {
	stats, err := h.relService.GetFollowStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, stats)
}

// ListFollowing 查询某用户关注的人；is_following 相对当前查看者
// @Summary 查询关注列表
// @Tags 关系链
// @Param id path string true "账号ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relService.ListFollowing(c.Request.Context(), c.Param("id"), principal(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param id path string true "账号ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relService.ListFollowers(c.Request.Context(), c.Param("id"), principal(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
