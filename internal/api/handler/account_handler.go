package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/service"
	"github.com/d60-Lab/social-blog/pkg/response"
)

// CreateAccount 注册账号
// @Summary 注册账号
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body service.AccountFields true "账号资料"
// @Success 201 {object} response.Response{data=model.Account}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/accounts [post]
func (h *Handler) CreateAccount(c *gin.Context) {
	var req service.AccountFields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.accountService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, a)
}

// GetAccount 查询账号
// @Summary 查询账号
// @Tags 账号
// @Produce json
// @Param id path string true "账号ID"
// @Success 200 {object} response.Response{data=model.Account}
// @Failure 404 {object} response.Response
// @Router /api/v1/accounts/{id} [get]
func (h *Handler) GetAccount(c *gin.Context) {
	a, err := h.accountService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, a)
}

// SearchAccounts 按 handle 查找账号
// @Summary 查找账号
// @Tags 账号
// @Produce json
// @Param q query string true "handle 片段"
// @Success 200 {object} response.Response{data=[]model.Account}
// @Router /api/v1/accounts/search [get]
func (h *Handler) SearchAccounts(c *gin.Context) {
	list, err := h.accountService.FindByHandlePrefix(c.Request.Context(), c.Query("q"), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"list": list})
}

// ListAccountBlogs 某账号的内容列表
// @Summary 作者内容列表
// @Description 作者本人可按任意状态过滤，其他人只能看到已发布内容
// @Tags 内容
// @Produce json
// @Param id path string true "作者ID"
// @Param status query string false "draft | published | archived"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/accounts/{id}/blogs [get]
func (h *Handler) ListAccountBlogs(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.lifecycleService.ListByAuthor(c.Request.Context(),
		c.Param("id"), principal(c), model.BlogStatus(c.Query("status")), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
