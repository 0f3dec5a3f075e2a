package usecase

import (
	"context"
	"errors"
	"strings"

	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"go.uber.org/zap"
)

// GET /api/users/email/:email の出力
type UserLookupOutput struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type UserUsecase struct {
	userRepo repo.UserRepository
	logger   *zap.Logger
}

// DI
func NewUserUsecase(userRepo repo.UserRepository) *UserUsecase {
	return &UserUsecase{
		userRepo: userRepo,
		logger:   zap.L().Named("user.usecase"),
	}
}

// セッションのemailからユーザーIDを引く
func (u *UserUsecase) FindByEmail(ctx context.Context, email string) (UserLookupOutput, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return UserLookupOutput{}, ValidationError("email is required")
	}
	if !validator.IsEmailLike(email) {
		return UserLookupOutput{}, ValidationError("invalid email")
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return UserLookupOutput{}, NotFoundError("user not found")
	}
	if err != nil {
		u.logger.Error("find user by email failed", zap.Error(err))
		return UserLookupOutput{}, InternalError()
	}

	return UserLookupOutput{ID: user.ID, Email: user.Email}, nil
}

// emailは小文字で保存・比較する
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
