package handler

import (
	"errors"
	"net/http"
	"strconv"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-blog/internal/api/middleware"
	"github.com/d60-Lab/social-blog/internal/service"
	"github.com/d60-Lab/social-blog/pkg/response"
)

// ViewQueue 浏览计数入队，不阻塞请求
type ViewQueue interface {
	Enqueue(blogID string) bool
}

// Handler 持有所有路由依赖的服务
type Handler struct {
	accountService   service.AccountService
	relService       service.RelationshipService
	contentService   service.ContentService
	lifecycleService service.LifecycleService
	rankingService   service.RankingService
	feedService      service.FeedService
	views            ViewQueue
}

func NewHandler(
	accounts service.AccountService,
	relations service.RelationshipService,
	content service.ContentService,
	lifecycle service.LifecycleService,
	ranking service.RankingService,
	feed service.FeedService,
	views ViewQueue,
) *Handler {
	return &Handler{
		accountService:   accounts,
		relService:       relations,
		contentService:   content,
		lifecycleService: lifecycle,
		rankingService:   ranking,
		feedService:      feed,
		views:            views,
	}
}

// writeError 把服务层错误映射为 HTTP 状态；Forbidden / NotFound 只返回通用信息
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FieldErrors(c, verr.Fields)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c)
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c)
	case errors.Is(err, service.ErrConflict):
		response.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrFollowSelf):
		response.Fail(c, http.StatusUnprocessableEntity, service.ErrFollowSelf.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		response.Fail(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrTransient):
		response.Fail(c, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
	default:
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		response.InternalError(c, err)
	}
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	return page, pageSize
}

func principal(c *gin.Context) string { return middleware.Principal(c) }
