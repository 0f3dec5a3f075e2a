package client

import (
	"context"

	"go.uber.org/zap"
)

const (
	msgLoginRequired = "Please login to use wishlist"
	msgAddFailed     = "Failed to add"
	msgRemoveFailed  = "Failed to remove"
	msgAdded         = "Added to wishlist"
	msgRemoved       = "Removed from wishlist"
)

// Heartが使うサーバー操作
type WishlistMutator interface {
	AddToWishlist(ctx context.Context, userID string, productID string) (CreateResult, error)
	RemoveFromWishlist(ctx context.Context, userID string, productID string) (string, error)
}

// Heart は商品1件のお気に入りトグル。
// 先にストアを書き換え（楽観更新）、サーバーが失敗したら元に戻して通知する。
type Heart struct {
	store    *WishlistStore
	api      WishlistMutator
	identity UserIdentity
	notifier Notifier
	logger   *zap.Logger
}

// DI
func NewHeart(store *WishlistStore, api WishlistMutator, identity UserIdentity, notifier Notifier) *Heart {
	return &Heart{
		store:    store,
		api:      api,
		identity: identity,
		notifier: notifier,
		logger:   zap.L().Named("wishlist.heart"),
	}
}

// 表示状態（塗りつぶしハートか）
func (h *Heart) IsInWishlist(productID any) bool {
	return h.store.Contains(productID)
}

// Toggle は今の状態の逆を実行する
func (h *Heart) Toggle(ctx context.Context, p Product) error {
	if h.IsInWishlist(p.ID) {
		return h.Remove(ctx, p.ID)
	}
	return h.Add(ctx, p)
}

// Add。戻り値のエラーは通知済み
func (h *Heart) Add(ctx context.Context, p Product) error {
	userID, err := h.identity.Resolve(ctx)
	if err != nil {
		h.logger.Debug("identity not resolved", zap.Error(err))
		h.notifier.Error(msgLoginRequired)
		return ErrNotSignedIn
	}

	item := p.WishlistItem()
	// 既にあった場合は失敗しても消さない
	changed := h.store.AddToWishlist(item)

	if _, err := h.api.AddToWishlist(ctx, userID, item.ID); err != nil {
		if changed {
			h.store.RemoveFromWishlist(item.ID)
		}
		h.logger.Warn("add to wishlist failed", zap.String("product_id", item.ID), zap.Error(err))
		h.notifier.Error(messageOf(err, msgAddFailed))
		return err
	}

	h.notifier.Success(msgAdded)
	return nil
}

// Remove。失敗時は外した行をそのまま元の位置に戻す
func (h *Heart) Remove(ctx context.Context, productID any) error {
	userID, err := h.identity.Resolve(ctx)
	if err != nil {
		h.logger.Debug("identity not resolved", zap.Error(err))
		h.notifier.Error(msgLoginRequired)
		return ErrNotSignedIn
	}

	id := NormalizeID(productID)
	removed, index, changed := h.store.RemoveFromWishlist(id)

	if _, err := h.api.RemoveFromWishlist(ctx, userID, id); err != nil {
		if changed {
			h.store.Restore(removed, index)
		}
		h.logger.Warn("remove from wishlist failed", zap.String("product_id", id), zap.Error(err))
		h.notifier.Error(messageOf(err, msgRemoveFailed))
		return err
	}

	h.notifier.Success(msgRemoved)
	return nil
}
