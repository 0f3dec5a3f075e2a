package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	appvalidator "storefront/internal/validator"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	msgUserIDRequired    = "userId is required"
	msgProductIDRequired = "productId is required"
	msgBothRequired      = "userId and productId are required"
	msgInvalidIDs        = "Invalid ids"
	msgNotInWishlist     = "Not found in wishlist"

	MsgAdded          = "Added to wishlist"
	MsgAlreadyExists  = "Already in wishlist"
	MsgRemoved        = "Removed from wishlist"
	MsgAbsentOnLookup = "Not in wishlist"
)

// 追加/削除のイベント種別
const (
	WishlistEventAdded   = "wishlist.added"
	WishlistEventRemoved = "wishlist.removed"
)

// 行の変化を外に流すイベント
type WishlistEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	ProductID  string    `json:"productId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// イベント発行の約束（kafka実装は infra/event）
type WishlistEventPublisher interface {
	Publish(ctx context.Context, ev WishlistEvent) error
}

// 追加/削除の件数を数える約束
type WishlistMetrics interface {
	IncWishlistMutation(op string, result string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, WishlistEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) IncWishlistMutation(string, string) {}

// レスポンスの1行（id, userId, productId だけ）
type WishlistRowOutput struct {
	ID        int64  `json:"id"`
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
}

// POST /api/wishlist の結果
type CreateWishlistOutput struct {
	Message string            `json:"message"`
	Item    WishlistRowOutput `json:"item"`
	Created bool              `json:"-"`
}

// POST の入力。JSONの型がバラバラで来るのでanyのまま受ける
type CreateWishlistInput struct {
	UserID    any
	ProductID any
}

// 正規化したあとのキー
type wishlistKey struct {
	UserID    string `validate:"required,max=64,wishlist_id"`
	ProductID string `validate:"required,max=64,wishlist_id"`
}

type WishlistUsecase struct {
	wishlistRepo repo.WishlistRepository
	publisher    WishlistEventPublisher
	metrics      WishlistMetrics
	validate     *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

type WishlistOption func(u *WishlistUsecase)

func WithEventPublisher(p WishlistEventPublisher) WishlistOption {
	return func(u *WishlistUsecase) {
		if p != nil {
			u.publisher = p
		}
	}
}

func WithMetrics(m WishlistMetrics) WishlistOption {
	return func(u *WishlistUsecase) {
		if m != nil {
			u.metrics = m
		}
	}
}

func WithLogger(l *zap.Logger) WishlistOption {
	return func(u *WishlistUsecase) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithClock はテスト用
func WithClock(now func() time.Time) WishlistOption {
	return func(u *WishlistUsecase) {
		if now != nil {
			u.now = now
		}
	}
}

// DI
func NewWishlistUsecase(wishlistRepo repo.WishlistRepository, opts ...WishlistOption) *WishlistUsecase {
	u := &WishlistUsecase{
		wishlistRepo: wishlistRepo,
		publisher:    nopPublisher{},
		metrics:      nopMetrics{},
		validate:     appvalidator.New(),
		logger:       zap.L().Named("wishlist.usecase"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// 全行（管理・デバッグ用）
func (u *WishlistUsecase) ListAll(ctx context.Context) ([]WishlistRowOutput, error) {
	rows, err := u.wishlistRepo.ListAll(ctx)
	if err != nil {
		u.logger.Error("list all wishlist rows failed", zap.Error(err))
		return nil, InternalError()
	}
	return toRowOutputs(rows), nil
}

// ユーザーの行
func (u *WishlistUsecase) ListByUser(ctx context.Context, userID string) ([]WishlistRowOutput, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ValidationError(msgUserIDRequired)
	}

	rows, err := u.wishlistRepo.ListByUser(ctx, userID)
	if err != nil {
		u.logger.Error("list wishlist rows failed", zap.String("user_id", userID), zap.Error(err))
		return nil, InternalError()
	}
	return toRowOutputs(rows), nil
}

// 1件確認。無いのはエラーではなく found=false
func (u *WishlistUsecase) GetOne(ctx context.Context, userID string, productID string) (WishlistRowOutput, bool, error) {
	userID = strings.TrimSpace(userID)
	productID = strings.TrimSpace(productID)
	if userID == "" {
		return WishlistRowOutput{}, false, ValidationError(msgUserIDRequired)
	}
	if productID == "" {
		return WishlistRowOutput{}, false, ValidationError(msgProductIDRequired)
	}

	row, err := u.wishlistRepo.FindByUserAndProduct(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return WishlistRowOutput{}, false, nil
	}
	if err != nil {
		u.logger.Error("find wishlist row failed", zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(err))
		return WishlistRowOutput{}, false, InternalError()
	}
	return toRowOutput(row), true, nil
}

// 追加。既にあれば既存行を成功で返す（重複は作らない）
func (u *WishlistUsecase) Create(ctx context.Context, in CreateWishlistInput) (CreateWishlistOutput, error) {
	key, err := u.normalizeCreate(in)
	if err != nil {
		u.metrics.IncWishlistMutation("create", "invalid")
		return CreateWishlistOutput{}, err
	}

	row, created, err := u.wishlistRepo.CreateIfAbsent(ctx, key.UserID, key.ProductID)
	if err != nil {
		u.metrics.IncWishlistMutation("create", "error")
		u.logger.Error("create wishlist row failed", zap.String("user_id", key.UserID), zap.String("product_id", key.ProductID), zap.Error(err))
		return CreateWishlistOutput{}, InternalError()
	}

	if !created {
		u.metrics.IncWishlistMutation("create", "existing")
		return CreateWishlistOutput{Message: MsgAlreadyExists, Item: toRowOutput(row), Created: false}, nil
	}

	u.metrics.IncWishlistMutation("create", "created")
	u.publish(ctx, WishlistEventAdded, key)

	return CreateWishlistOutput{Message: MsgAdded, Item: toRowOutput(row), Created: true}, nil
}

// 削除。無ければ404
func (u *WishlistUsecase) Delete(ctx context.Context, userID string, productID string) error {
	key := wishlistKey{UserID: strings.TrimSpace(userID), ProductID: strings.TrimSpace(productID)}
	if key.UserID == "" || key.ProductID == "" {
		u.metrics.IncWishlistMutation("delete", "invalid")
		return ValidationError(msgBothRequired)
	}
	if err := u.validate.Struct(key); err != nil {
		u.metrics.IncWishlistMutation("delete", "invalid")
		return ValidationError(msgInvalidIDs)
	}

	err := u.wishlistRepo.DeleteByUserAndProduct(ctx, key.UserID, key.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		u.metrics.IncWishlistMutation("delete", "not_found")
		return NotFoundError(msgNotInWishlist)
	}
	if err != nil {
		u.metrics.IncWishlistMutation("delete", "error")
		u.logger.Error("delete wishlist row failed", zap.String("user_id", key.UserID), zap.String("product_id", key.ProductID), zap.Error(err))
		return InternalError()
	}

	u.metrics.IncWishlistMutation("delete", "deleted")
	u.publish(ctx, WishlistEventRemoved, key)
	return nil
}

// 必須 → 型（文字列のみ） → 長さ の順でチェック
func (u *WishlistUsecase) normalizeCreate(in CreateWishlistInput) (wishlistKey, error) {
	if isBlank(in.UserID) || isBlank(in.ProductID) {
		return wishlistKey{}, ValidationError(msgBothRequired)
	}

	userID, ok1 := in.UserID.(string)
	productID, ok2 := in.ProductID.(string)
	if !ok1 || !ok2 {
		return wishlistKey{}, ValidationError(msgInvalidIDs)
	}

	key := wishlistKey{UserID: strings.TrimSpace(userID), ProductID: strings.TrimSpace(productID)}
	if err := u.validate.Struct(key); err != nil {
		return wishlistKey{}, ValidationError(msgInvalidIDs)
	}
	return key, nil
}

// nil / 空文字 / 空白だけ は未指定扱い
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// 発行失敗はログだけ。リクエストは失敗させない
func (u *WishlistUsecase) publish(ctx context.Context, typ string, key wishlistKey) {
	ev := WishlistEvent{
		Type:       typ,
		UserID:     key.UserID,
		ProductID:  key.ProductID,
		OccurredAt: u.now().UTC(),
	}
	if err := u.publisher.Publish(ctx, ev); err != nil {
		u.logger.Warn("publish wishlist event failed", zap.String("type", typ), zap.String("user_id", key.UserID), zap.Error(err))
	}
}

func toRowOutput(r model.WishlistItem) WishlistRowOutput {
	return WishlistRowOutput{ID: r.ID, UserID: r.UserID, ProductID: r.ProductID}
}

func toRowOutputs(rows []model.WishlistItem) []WishlistRowOutput {
	out := make([]WishlistRowOutput, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRowOutput(r))
	}
	return out
}
