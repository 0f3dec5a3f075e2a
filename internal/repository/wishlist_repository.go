package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// ウィッシュリスト行の永続化を約束。
// 並びは常に id desc（新しい順）。
type WishlistRepository interface {
	ListAll(ctx context.Context) ([]model.WishlistItem, error)
	ListByUser(ctx context.Context, userID string) ([]model.WishlistItem, error)
	// 無ければ ErrNotFound
	FindByUserAndProduct(ctx context.Context, userID string, productID string) (model.WishlistItem, error)
	// 既存ありなら既存行と created=false を返す（1文の条件付きINSERT）
	CreateIfAbsent(ctx context.Context, userID string, productID string) (model.WishlistItem, bool, error)
	// 0件削除は ErrNotFound
	DeleteByUserAndProduct(ctx context.Context, userID string, productID string) error
}
