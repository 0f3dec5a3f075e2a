package model

import "time"

// ウィッシュリストの1行 = (user, product) の所属
// 同じペアは1行だけ（複合ユニーク）。更新はしない、あるか無いかだけ。
type WishlistItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_wishlist_user_product,priority:1" json:"userId"`
	ProductID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_wishlist_user_product,priority:2" json:"productId"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"-"`
}

func (WishlistItem) TableName() string {
	return "wishlists"
}

// 複合ユニークインデックス名（存在チェックにも使う）
const WishlistUserProductIndex = "idx_wishlist_user_product"
