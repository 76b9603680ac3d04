package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/internal/model"
	"github.com/d60-Lab/social-blog/internal/repository"
)

// AccountService 账号目录
type AccountService interface {
	CreateAccount(ctx context.Context, fields AccountFields) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	// FindByHandlePrefix 按 handle 模糊查找，排除请求者本人
	FindByHandlePrefix(ctx context.Context, query, requesterID string) ([]*model.Account, error)
}

type accountService struct {
	repo      repository.AccountRepository
	validator *FieldValidator
	graph     config.GraphConfig
	limit     int
}

func NewAccountService(repo repository.AccountRepository, v *FieldValidator, graph config.GraphConfig, content config.ContentConfig) AccountService {
	return &accountService{repo: repo, validator: v, graph: graph, limit: content.SearchLimit}
}

func (s *accountService) CreateAccount(ctx context.Context, fields AccountFields) (*model.Account, error) {
	fields.Handle = strings.TrimSpace(fields.Handle)
	if err := s.validator.Account(fields); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.graph.StoreTimeout)
	defer cancel()

	a := &model.Account{
		ID:          uuid.New().String(),
		Handle:      fields.Handle,
		DisplayName: strings.TrimSpace(fields.DisplayName),
		Bio:         fields.Bio,
		AvatarURL:   fields.AvatarURL,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &conflictError{field: "handle", msg: "is already taken"}
		}
		return nil, storeErr("create account", err)
	}
	return a, nil
}

func (s *accountService) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.graph.StoreTimeout)
	defer cancel()
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get account", err)
	}
	return a, nil
}

func (s *accountService) FindByHandlePrefix(ctx context.Context, query, requesterID string) ([]*model.Account, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Account{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.graph.StoreTimeout)
	defer cancel()
	res, err := s.repo.SearchByHandle(ctx, query, requesterID, s.limit)
	if err != nil {
		return nil, storeErr("search accounts", err)
	}
	return res, nil
}

// conflictError 唯一键冲突，带上冲突字段
type conflictError struct {
	field string
	msg   string
}

func (e *conflictError) Error() string { return e.field + " " + e.msg }
func (e *conflictError) Unwrap() error { return ErrConflict }

// Field reports which unique field collided.
func (e *conflictError) Field() string { return e.field }
