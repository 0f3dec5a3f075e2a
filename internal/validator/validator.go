package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// IDの最大長（varchar(64)に合わせる）
const MaxIDLength = 64

// 簡易メール形式
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// New は "wishlist_id" タグを登録したvalidatorを返す
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 登録に失敗するのはタグ名が不正な時だけ
	_ = v.RegisterValidation("wishlist_id", func(fl validator.FieldLevel) bool {
		return IsValidID(fl.Field().String())
	})
	return v
}

// IsValidID はURLの1セグメントとして扱えるIDか。
// "/" や制御文字が入っているとDELETE/GETで指せなくなる
func IsValidID(id string) bool {
	if id == "" || len(id) > MaxIDLength || strings.TrimSpace(id) != id {
		return false
	}
	for _, r := range id {
		if r == '/' || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func IsEmailLike(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}
