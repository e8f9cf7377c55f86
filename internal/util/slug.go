package util

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsSlug 小写字母、数字，以单个连字符分隔
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify 由名称生成 URL 安全的 slug
func Slugify(name string) string {
	return slug.Make(name)
}

// ValidateSlug 注册为 gin 的 binding:"slug" 规则，空值交给 omitempty/required 处理
func ValidateSlug(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" || IsSlug(v)
}
