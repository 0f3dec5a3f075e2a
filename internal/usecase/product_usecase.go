package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// GET /api/products/:id の出力
type ProductOutput struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	MainImage string `json:"mainImage"`
	Slug      string `json:"slug"`
	InStock   int64  `json:"inStock"`
}

// 商品詳細キャッシュの約束（redis実装は infra/cache）
// 見つからない時は found=false, err=nil
type ProductCache interface {
	Get(ctx context.Context, id string) (ProductOutput, bool, error)
	Set(ctx context.Context, p ProductOutput) error
}

type ProductUsecase struct {
	productRepo repo.ProductRepository
	cache       ProductCache
	logger      *zap.Logger
}

// DI（cacheはnil可）
func NewProductUsecase(productRepo repo.ProductRepository, cache ProductCache) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		cache:       cache,
		logger:      zap.L().Named("product.usecase"),
	}
}

// 詳細。キャッシュ→DBの順。キャッシュの失敗はDBに落とすだけ
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID string) (ProductOutput, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ProductOutput{}, ValidationError("invalid product id")
	}

	if u.cache != nil {
		out, found, err := u.cache.Get(ctx, productID)
		if err != nil {
			u.logger.Warn("product cache get failed", zap.String("product_id", productID), zap.Error(err))
		}
		if err == nil && found {
			return out, nil
		}
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, NotFoundError("not found")
	}
	if err != nil {
		u.logger.Error("find product failed", zap.String("product_id", productID), zap.Error(err))
		return ProductOutput{}, InternalError()
	}

	out := toProductOutput(p)
	if u.cache != nil {
		if err := u.cache.Set(ctx, out); err != nil {
			u.logger.Warn("product cache set failed", zap.String("product_id", productID), zap.Error(err))
		}
	}
	return out, nil
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:        p.ID,
		Title:     p.Title,
		Price:     p.Price,
		MainImage: p.MainImage,
		Slug:      p.Slug,
		InStock:   p.InStock,
	}
}
