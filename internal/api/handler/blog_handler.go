package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-blog/internal/service"
	"github.com/d60-Lab/social-blog/pkg/response"
)

// CreateDraft 新建草稿
// @Summary 新建草稿
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateContentFields true "内容字段"
// @Success 201 {object} response.Response{data=model.Blog}
// @Failure 400 {object} response.Response
// @Router /api/v1/blogs/drafts [post]
func (h *Handler) CreateDraft(c *gin.Context) {
	h.saveDraft(c, "")
}

// UpdateDraft 编辑草稿
// @Summary 编辑草稿
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Param request body service.CreateContentFields true "内容字段"
// @Success 200 {object} response.Response{data=model.Blog}
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/blogs/{id}/draft [put]
func (h *Handler) UpdateDraft(c *gin.Context) {
	h.saveDraft(c, c.Param("id"))
}

func (h *Handler) saveDraft(c *gin.Context, id string) {
	var req service.CreateContentFields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.lifecycleService.SaveDraft(c.Request.Context(), principal(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	if id == "" {
		response.Created(c, b)
		return
	}
	response.Success(c, b)
}

// PublishNew 直接发布新内容
// @Summary 发布新内容
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateContentFields true "内容字段"
// @Success 201 {object} response.Response{data=model.Blog}
// @Failure 400 {object} response.Response
// @Router /api/v1/blogs/publish [post]
func (h *Handler) PublishNew(c *gin.Context) {
	h.publish(c, "")
}

// Publish 发布草稿，或编辑已发布内容
// @Summary 发布草稿
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Param request body service.CreateContentFields true "内容字段"
// @Success 200 {object} response.Response{data=model.Blog}
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/blogs/{id}/publish [put]
func (h *Handler) Publish(c *gin.Context) {
	h.publish(c, c.Param("id"))
}

func (h *Handler) publish(c *gin.Context, id string) {
	var req service.CreateContentFields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.lifecycleService.Publish(c.Request.Context(), principal(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	if id == "" {
		response.Created(c, b)
		return
	}
	response.Success(c, b)
}

// Archive 归档
// @Summary 归档已发布内容
// @Tags 内容
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Success 200 {object} response.Response{data=model.Blog}
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/blogs/{id}/archive [post]
func (h *Handler) Archive(c *gin.Context) {
	b, err := h.lifecycleService.Archive(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, b)
}

// UpdateBlog 局部编辑，状态不变
// @Summary 局部编辑内容
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Param request body service.UpdateContentFields true "需要修改的字段"
// @Success 200 {object} response.Response{data=model.Blog}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/blogs/{id} [patch]
func (h *Handler) UpdateBlog(c *gin.Context) {
	var req service.UpdateContentFields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.contentService.Update(c.Request.Context(), c.Param("id"), principal(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, b)
}

// DeleteBlog 软删除
// @Summary 删除内容
// @Tags 内容
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/blogs/{id} [delete]
func (h *Handler) DeleteBlog(c *gin.Context) {
	if err := h.lifecycleService.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetBlog 查看内容
// @Summary 查看内容
// @Tags 内容
// @Produce json
// @Param id path string true "内容ID"
// @Success 200 {object} response.Response{data=model.Blog}
// @Failure 404 {object} response.Response
// @Router /api/v1/blogs/{id} [get]
func (h *Handler) GetBlog(c *gin.Context) {
	b, err := h.contentService.Get(c.Request.Context(), c.Param("id"), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, b)
}
