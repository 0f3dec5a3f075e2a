package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSuperseded は新しいLoadに追い越された時
var ErrSuperseded = errors.New("wishlist load superseded")

const defaultFetchConcurrency = 8

// Pageが使うサーバー操作
type WishlistReader interface {
	ListWishlist(ctx context.Context, userID string) ([]WishlistRow, error)
	Product(ctx context.Context, id string) (Product, error)
}

// Page はウィッシュリスト画面のロード。
// 1段目で行を取ってストアを置き換え、2段目で商品詳細を並列に取る。
// 新しいLoadが来たら古いLoadはキャンセルされ、結果も反映されない。
type Page struct {
	store    *WishlistStore
	api      WishlistReader
	identity UserIdentity
	logger   *zap.Logger
	limit    int

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	products []Product
	loading  bool
}

type PageOption func(p *Page)

// 商品詳細の同時取得数
func WithFetchConcurrency(n int) PageOption {
	return func(p *Page) {
		if n > 0 {
			p.limit = n
		}
	}
}

// DI
func NewPage(store *WishlistStore, api WishlistReader, identity UserIdentity, opts ...PageOption) *Page {
	p := &Page{
		store:    store,
		api:      api,
		identity: identity,
		logger:   zap.L().Named("wishlist.page"),
		limit:    defaultFetchConcurrency,
		products: []Product{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// 表示中の商品（コピー）
func (p *Page) Products() []Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Product, len(p.products))
	copy(out, p.products)
	return out
}

func (p *Page) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Load は行 → ストア置き換え → 商品詳細 の2段ロード。
// 詳細の個別失敗はその商品を表示から落とすだけで、全体は失敗させない。
func (p *Page) Load(ctx context.Context) ([]Product, error) {
	ctx, seq := p.begin(ctx)
	defer p.finish(seq)

	userID, err := p.identity.Resolve(ctx)
	if errors.Is(err, ErrNotSignedIn) {
		if !p.applyProducts(seq, []Product{}) {
			return nil, ErrSuperseded
		}
		return []Product{}, nil
	}
	if err != nil {
		return nil, p.staleOr(seq, err)
	}

	rows, err := p.api.ListWishlist(ctx, userID)
	if err != nil {
		return nil, p.staleOr(seq, err)
	}

	productIDs := uniqueProductIDs(rows)
	items := make([]ProductInWishlist, 0, len(productIDs))
	for _, id := range productIDs {
		items = append(items, ProductInWishlist{ID: id})
	}
	if !p.applyWishlist(seq, items) {
		return nil, ErrSuperseded
	}

	products := p.fetchProducts(ctx, productIDs)
	// キャンセルで全部落ちた結果は表示に出さない
	if err := ctx.Err(); err != nil {
		return nil, p.staleOr(seq, err)
	}
	if !p.applyProducts(seq, products) {
		return nil, ErrSuperseded
	}
	return products, nil
}

// Watch はストアの件数やセッションが変わるたびにLoadし直す。ctxが終わるまで戻らない
func (p *Page) Watch(ctx context.Context) error {
	trigger := make(chan struct{}, 1)
	poke := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	var lastQuantity atomic.Int64
	lastQuantity.Store(int64(p.store.State().WishQuantity))
	unsubStore := p.store.Subscribe(func(st WishlistState) {
		if lastQuantity.Swap(int64(st.WishQuantity)) != int64(st.WishQuantity) {
			poke()
		}
	})
	defer unsubStore()

	if w, ok := p.identity.(interface{ Subscribe(func()) func() }); ok {
		unsubSession := w.Subscribe(poke)
		defer unsubSession()
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	poke()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-trigger:
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := p.Load(ctx); err != nil && !errors.Is(err, ErrSuperseded) && ctx.Err() == nil {
					p.logger.Warn("wishlist load failed", zap.Error(err))
				}
			}()
		}
	}
}

// 前のLoadをキャンセルして番号を進める
func (p *Page) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	p.cancel = cancel
	p.loading = true
	return ctx, p.seq
}

func (p *Page) finish(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return
	}
	p.cancel()
	p.cancel = nil
	p.loading = false
}

// 最新のLoadの時だけストアを置き換える。
// 判定と置き換えを同じロック内でやるので古い結果が割り込まない。
func (p *Page) applyWishlist(seq uint64, items []ProductInWishlist) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return false
	}
	p.store.SetWishlist(items)
	return true
}

func (p *Page) applyProducts(seq uint64, products []Product) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return false
	}
	p.products = products
	return true
}

func (p *Page) staleOr(seq uint64, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return ErrSuperseded
	}
	return err
}

// 商品詳細を並列に取る。失敗した分は落とし、順番は行の順のまま
func (p *Page) fetchProducts(ctx context.Context, ids []string) []Product {
	results := make([]Product, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for i, id := range ids {
		g.Go(func() error {
			prod, err := p.api.Product(gctx, id)
			if err != nil {
				p.logger.Debug("product fetch failed", zap.String("product_id", id), zap.Error(err))
				return nil
			}
			results[i] = prod
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Product, 0, len(results))
	for _, prod := range results {
		if prod.ID != "" {
			out = append(out, prod)
		}
	}
	return out
}

func uniqueProductIDs(rows []WishlistRow) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		id := NormalizeID(r.ProductID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
