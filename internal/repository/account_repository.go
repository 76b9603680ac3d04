package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-blog/internal/model"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Get(ctx context.Context, id string) (*model.Account, error)
	GetMany(ctx context.Context, ids []string) ([]*model.Account, error)
	SearchByHandle(ctx context.Context, query, excludeID string, limit int) ([]*model.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepository{db: db} }

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	account.HandleLower = strings.ToLower(account.Handle)
	return translate(r.db.WithContext(ctx).Create(account).Error)
}

func (r *accountRepository) Get(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// GetMany 批量查询，结果顺序不保证与 ids 一致
func (r *accountRepository) GetMany(ctx context.Context, ids []string) ([]*model.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res []*model.Account
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&res).Error
	return res, translate(err)
}

// SearchByHandle 大小写不敏感的子串匹配，前缀命中排在前面
func (r *accountRepository) SearchByHandle(ctx context.Context, query, excludeID string, limit int) ([]*model.Account, error) {
	q := escapeLike(strings.ToLower(query))
	var res []*model.Account
	tx := r.db.WithContext(ctx).
		Where(`handle_lower LIKE ? ESCAPE '\'`, "%"+q+"%")
	if excludeID != "" {
		tx = tx.Where("id <> ?", excludeID)
	}
	err := tx.
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                `CASE WHEN handle_lower LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, handle_lower ASC`,
			Vars:               []any{q + "%"},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&res).Error
	return res, translate(err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
