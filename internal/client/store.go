package client

import (
	"sync"
)

// ウィッシュリスト内の商品（表示用の射影）。IDは常に正規化済み文字列
type ProductInWishlist struct {
	ID                string `json:"id"`
	Title             string `json:"title,omitempty"`
	Price             int64  `json:"price,omitempty"`
	Image             string `json:"image,omitempty"`
	Slug              string `json:"slug,omitempty"`
	StockAvailability int64  `json:"stockAvailability,omitempty"`
}

// ストアの状態。WishQuantityは常にlen(Wishlist)から作る
type WishlistState struct {
	Wishlist     []ProductInWishlist `json:"wishlist"`
	WishQuantity int                 `json:"wishQuantity"`
	// 遷移ごとに+1。非同期に届いた通知の新旧比較用
	Version uint64 `json:"-"`
}

// WishlistStore はクライアント側のウィッシュリスト状態。
// シングルトンにせず、使う側（Heart/Page）に注入する。
type WishlistStore struct {
	mu      sync.Mutex
	items   []ProductInWishlist
	version uint64

	listeners  map[int]func(WishlistState)
	nextListen int
}

func NewWishlistStore() *WishlistStore {
	return &WishlistStore{
		items:     []ProductInWishlist{},
		listeners: map[int]func(WishlistState){},
	}
}

// 末尾に追加。同じIDがあれば何もしない（false）
func (s *WishlistStore) AddToWishlist(p ProductInWishlist) bool {
	p.ID = NormalizeID(p.ID)
	if p.ID == "" {
		return false
	}

	s.mu.Lock()
	if s.indexLocked(p.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	next := make([]ProductInWishlist, 0, len(s.items)+1)
	next = append(next, s.items...)
	next = append(next, p)
	st, ls := s.commitLocked(next)
	s.mu.Unlock()

	notify(ls, st)
	return true
}

// IDに一致する行を外す。外した行と元の位置を返す（ロールバック用のpre-image）
func (s *WishlistStore) RemoveFromWishlist(id string) (ProductInWishlist, int, bool) {
	id = NormalizeID(id)

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ProductInWishlist{}, -1, false
	}
	removed := s.items[idx]
	next := make([]ProductInWishlist, 0, len(s.items)-1)
	for _, it := range s.items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	st, ls := s.commitLocked(next)
	s.mu.Unlock()

	notify(ls, st)
	return removed, idx, true
}

// 丸ごと置き換え。同じIDは最後の値を採用し、位置は最初に出た所に置く。
// 途中状態（空など）は外から見えない。
func (s *WishlistStore) SetWishlist(list []ProductInWishlist) {
	next := make([]ProductInWishlist, 0, len(list))
	pos := make(map[string]int, len(list))
	for _, p := range list {
		p.ID = NormalizeID(p.ID)
		if p.ID == "" {
			continue
		}
		if i, ok := pos[p.ID]; ok {
			next[i] = p
			continue
		}
		pos[p.ID] = len(next)
		next = append(next, p)
	}

	s.mu.Lock()
	if equalItems(s.items, next) {
		s.mu.Unlock()
		return
	}
	st, ls := s.commitLocked(next)
	s.mu.Unlock()

	notify(ls, st)
}

// RemoveFromWishlistで外した行を元の位置に戻す。
// 既に同じIDがあれば戻さない（false）
func (s *WishlistStore) Restore(p ProductInWishlist, index int) bool {
	p.ID = NormalizeID(p.ID)
	if p.ID == "" {
		return false
	}

	s.mu.Lock()
	if s.indexLocked(p.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	if index < 0 || index > len(s.items) {
		index = len(s.items)
	}
	next := make([]ProductInWishlist, 0, len(s.items)+1)
	next = append(next, s.items[:index]...)
	next = append(next, p)
	next = append(next, s.items[index:]...)
	st, ls := s.commitLocked(next)
	s.mu.Unlock()

	notify(ls, st)
	return true
}

func (s *WishlistStore) Contains(id any) bool {
	key := NormalizeID(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(key) >= 0
}

// 現在の状態のコピー
func (s *WishlistStore) State() WishlistState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe は遷移ごとに遷移後の状態でfnを呼ぶ。戻り値で解除。
// fnは変更した側のgoroutineで同期的に呼ばれるので、重い処理は別goroutineに逃がすこと。
func (s *WishlistStore) Subscribe(fn func(WishlistState)) func() {
	s.mu.Lock()
	id := s.nextListen
	s.nextListen++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *WishlistStore) indexLocked(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// items差し替えと件数の再計算を1回の遷移として確定する
func (s *WishlistStore) commitLocked(next []ProductInWishlist) (WishlistState, []func(WishlistState)) {
	s.items = next
	s.version++

	ls := make([]func(WishlistState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		ls = append(ls, fn)
	}
	return s.snapshotLocked(), ls
}

func (s *WishlistStore) snapshotLocked() WishlistState {
	items := make([]ProductInWishlist, len(s.items))
	copy(items, s.items)
	return WishlistState{
		Wishlist:     items,
		WishQuantity: len(items),
		Version:      s.version,
	}
}

func notify(ls []func(WishlistState), st WishlistState) {
	for _, fn := range ls {
		fn(st)
	}
}

func equalItems(a, b []ProductInWishlist) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
