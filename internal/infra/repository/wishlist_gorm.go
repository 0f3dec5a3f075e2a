package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 返すのは id, user_id, product_id だけ
var wishlistColumns = []string{"id", "user_id", "product_id"}

type WishlistGormRepository struct {
	db *gorm.DB
	// 複合ユニークがある時だけ ON CONFLICT / ユニーク検索を使う
	uniqueIndex bool
}

// DI
func NewWishlistGormRepository(db *gorm.DB) *WishlistGormRepository {
	return &WishlistGormRepository{
		db:          db,
		uniqueIndex: db.Migrator().HasIndex(&model.WishlistItem{}, model.WishlistUserProductIndex),
	}
}

// 全行（新しい順）
func (r *WishlistGormRepository) ListAll(ctx context.Context) ([]model.WishlistItem, error) {
	items := []model.WishlistItem{}

	if err := r.db.WithContext(ctx).
		Select(wishlistColumns).
		Order("id desc").
		Find(&items).Error; err != nil {
		return []model.WishlistItem{}, err
	}
	return items, nil
}

// ユーザーの行（新しい順）
func (r *WishlistGormRepository) ListByUser(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	items := []model.WishlistItem{}

	if err := r.db.WithContext(ctx).
		Select(wishlistColumns).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error; err != nil {
		return []model.WishlistItem{}, err
	}
	return items, nil
}

func (r *WishlistGormRepository) FindByUserAndProduct(ctx context.Context, userID string, productID string) (model.WishlistItem, error) {
	return findPair(r.db.WithContext(ctx), r.uniqueIndex, userID, productID)
}

// 複合キーで1件。ユニークが無ければ最初の1件（id順）
func findPair(db *gorm.DB, unique bool, userID string, productID string) (model.WishlistItem, error) {
	var item model.WishlistItem

	q := db.Select(wishlistColumns).Where("user_id = ? AND product_id = ?", userID, productID)

	var err error
	if unique {
		err = q.Take(&item).Error
	} else {
		err = q.First(&item).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.WishlistItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.WishlistItem{}, err
	}
	return item, nil
}

// 条件付きINSERT。既存ありなら既存行を返す
func (r *WishlistGormRepository) CreateIfAbsent(ctx context.Context, userID string, productID string) (model.WishlistItem, bool, error) {
	if !r.uniqueIndex {
		return r.createInTx(ctx, userID, productID)
	}

	item := model.WishlistItem{UserID: userID, ProductID: productID}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&item)
	if res.Error != nil {
		return model.WishlistItem{}, false, res.Error
	}

	if res.RowsAffected > 0 {
		return projection(item), true, nil
	}

	// 競合＝既にある
	existing, err := findPair(r.db.WithContext(ctx), true, userID, productID)
	if err != nil {
		return model.WishlistItem{}, false, err
	}
	return existing, false, nil
}

// ユニークが無いテーブル用：トランザクションで探す→無ければ作る
func (r *WishlistGormRepository) createInTx(ctx context.Context, userID string, productID string) (model.WishlistItem, bool, error) {
	var out model.WishlistItem
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, findErr := findPair(tx, false, userID, productID)
		if findErr == nil {
			out = existing
			return nil
		}
		if !errors.Is(findErr, repo.ErrNotFound) {
			return findErr
		}

		item := model.WishlistItem{UserID: userID, ProductID: productID}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		out = projection(item)
		created = true
		return nil
	})
	if err != nil {
		return model.WishlistItem{}, false, err
	}
	return out, created, nil
}

// ペアの行を削除
func (r *WishlistGormRepository) DeleteByUserAndProduct(ctx context.Context, userID string, productID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.WishlistItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func projection(item model.WishlistItem) model.WishlistItem {
	return model.WishlistItem{ID: item.ID, UserID: item.UserID, ProductID: item.ProductID}
}
