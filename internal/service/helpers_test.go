package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
	"github.com/d60-Lab/social-blog/internal/storetest"
)

var testGraph = config.GraphConfig{
	StoreTimeout:   2 * time.Second,
	MirrorRetries:  2,
	RetryDelay:     time.Millisecond,
	ToggleAttempts: 3,
	ListPageSize:   20,
}

var testContent = config.ContentConfig{
	MinWordCount:  1,
	MaxTags:       3,
	TrendingLimit: 5,
	SearchLimit:   20,
}

type env struct {
	db        *gorm.DB
	accounts  repository.AccountRepository
	follows   repository.FollowRepository
	fans      repository.FanRepository
	inbox     repository.InboxRepository
	blogs     repository.BlogRepository
	likes     repository.LikeRepository
	validator *FieldValidator
	store     *BlogStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := storetest.NewDB(t)
	e := &env{
		db:        db,
		accounts:  repository.NewAccountRepository(db),
		follows:   repository.NewFollowRepository(db),
		fans:      repository.NewFanRepository(db),
		inbox:     repository.NewInboxRepository(db),
		blogs:     repository.NewBlogRepository(db),
		likes:     repository.NewLikeRepository(db),
		validator: NewFieldValidator(testContent.MinWordCount, testContent.MaxTags),
	}
	e.store = NewBlogStore(e.blogs, e.validator, testGraph)
	return e
}

func (e *env) account(t *testing.T, handle string) *model.Account {
	t.Helper()
	a := &model.Account{ID: uuid.NewString(), Handle: handle}
	require.NoError(t, e.accounts.Create(context.Background(), a))
	return a
}

func (e *env) relationships() RelationshipService {
	return NewRelationshipService(e.accounts, e.follows, e.fans, e.inbox, repository.NewFollowGraph(e.db), testGraph)
}

func draftFields(title string) CreateContentFields {
	return CreateContentFields{
		Title: title,
		Genre: "Tech",
		Tags:  []string{"go"},
		Body:  "hello world body",
	}
}
