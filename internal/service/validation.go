package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// CreateContentFields 内容的完整可编辑字段
type CreateContentFields struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Genre         string   `json:"genre" validate:"required,max=64"`
	Tags          []string `json:"tags" validate:"dive,required,max=32"`
	Body          string   `json:"body" validate:"required"`
	CoverImageURL string   `json:"cover_image_url" validate:"max=512"`
}

// UpdateContentFields 局部更新；nil 表示保持原值
type UpdateContentFields struct {
	Title         *string   `json:"title"`
	Genre         *string   `json:"genre"`
	Tags          *[]string `json:"tags"`
	Body          *string   `json:"body"`
	CoverImageURL *string   `json:"cover_image_url"`
}

func (u UpdateContentFields) applyTo(f CreateContentFields) CreateContentFields {
	if u.Title != nil {
		f.Title = *u.Title
	}
	if u.Genre != nil {
		f.Genre = *u.Genre
	}
	if u.Tags != nil {
		f.Tags = *u.Tags
	}
	if u.Body != nil {
		f.Body = *u.Body
	}
	if u.CoverImageURL != nil {
		f.CoverImageURL = *u.CoverImageURL
	}
	return f
}

// AccountFields 注册账号时的资料
type AccountFields struct {
	Handle      string `json:"handle" validate:"required,min=3,max=32,handle"`
	DisplayName string `json:"display_name" validate:"max=128"`
	Bio         string `json:"bio" validate:"max=1000"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url,max=512"`
}

// FieldValidator runs one validation pass and reports every failing field.
type FieldValidator struct {
	v            *validator.Validate
	minWordCount int
	maxTags      int
}

func NewFieldValidator(minWordCount, maxTags int) *FieldValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})
	return &FieldValidator{v: v, minWordCount: minWordCount, maxTags: maxTags}
}

// normalizeContent 去除首尾空白，genre 小写，tags 去重；cover_image_url 原样保留
func normalizeContent(f CreateContentFields) CreateContentFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Genre = strings.ToLower(strings.TrimSpace(f.Genre))
	seen := make(map[string]struct{}, len(f.Tags))
	tags := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	f.Tags = tags
	return f
}

func (fv *FieldValidator) Content(f CreateContentFields) error {
	verr := &ValidationError{}
	fv.collect(f, verr)
	if fv.maxTags > 0 && len(f.Tags) > fv.maxTags {
		verr.add("tags", fmt.Sprintf("must have at most %d tags", fv.maxTags))
	}
	// body 不做 trim：纯空白正文只由最少字数规则拦截（config 保证 min_word_count >= 1）
	if _, bad := verr.Fields["body"]; !bad && len(strings.Fields(f.Body)) < fv.minWordCount {
		verr.add("body", fmt.Sprintf("must contain at least %d words", fv.minWordCount))
	}
	return verr.orNil()
}

func (fv *FieldValidator) Account(f AccountFields) error {
	verr := &ValidationError{}
	fv.collect(f, verr)
	return verr.orNil()
}

func (fv *FieldValidator) collect(s any, verr *ValidationError) {
	err := fv.v.Struct(s)
	if err == nil {
		return
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		verr.add("_", err.Error())
		return
	}
	for _, fe := range ves {
		verr.add(fieldKey(fe), message(fe))
	}
}

// fieldKey 去掉顶层结构体名，保留 tags[0] 这类下标
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "url":
		return "must be a valid URL"
	case "handle":
		return "may only contain letters, digits and underscores"
	}
	return "is invalid"
}
