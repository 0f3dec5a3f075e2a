package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type recordingNotifier struct {
	mu       sync.Mutex
	success  []string
	failures []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = append(n.success, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, msg)
}

func (n *recordingNotifier) all() (success []string, failures []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.success...), append([]string(nil), n.failures...)
}

// サーバーの挙動をテストごとに差し替えられるフェイク
type fakeServer struct {
	mu sync.Mutex

	users    map[string]any // email → id（数値も入れられる）
	rows     map[string][]map[string]any
	products map[string]map[string]any

	addStatus    int
	addBody      string
	removeStatus int
	removeBody   string
	failProducts map[string]bool

	hits       map[string]int
	lastAuth   string
	lastCreate map[string]any
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()

	f := &fakeServer{
		users:        map[string]any{},
		rows:         map[string][]map[string]any{},
		products:     map[string]map[string]any{},
		failProducts: map[string]bool{},
		hits:         map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/email/{email}", f.handleUser)
	mux.HandleFunc("GET /api/wishlist/{userId}", f.handleList)
	mux.HandleFunc("GET /api/wishlist/{userId}/{productId}", f.handleGetOne)
	mux.HandleFunc("POST /api/wishlist", f.handleCreate)
	mux.HandleFunc("DELETE /api/wishlist/{userId}/{productId}", f.handleDelete)
	mux.HandleFunc("GET /api/products/{id}", f.handleProduct)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeServer) hit(name string, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[name]++
	f.lastAuth = r.Header.Get("Authorization")
}

func (f *fakeServer) hitCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[name]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeServer) handleUser(w http.ResponseWriter, r *http.Request) {
	f.hit("user", r)
	f.mu.Lock()
	id, ok := f.users[r.PathValue("email")]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "email": r.PathValue("email")})
}

func (f *fakeServer) handleList(w http.ResponseWriter, r *http.Request) {
	f.hit("list", r)
	f.mu.Lock()
	rows := f.rows[r.PathValue("userId")]
	f.mu.Unlock()
	if rows == nil {
		rows = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (f *fakeServer) handleGetOne(w http.ResponseWriter, r *http.Request) {
	f.hit("getOne", r)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows[r.PathValue("userId")] {
		if NormalizeID(row["productId"]) == r.PathValue("productId") {
			writeJSON(w, http.StatusOK, row)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not in wishlist"})
}

func (f *fakeServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	f.hit("create", r)

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.lastCreate = body
	status, raw := f.addStatus, f.addBody
	f.mu.Unlock()

	if status != 0 {
		writeRaw(w, status, raw)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Added to wishlist",
		"item":    map[string]any{"id": 1, "userId": body["userId"], "productId": body["productId"]},
	})
}

func (f *fakeServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	f.hit("delete", r)

	f.mu.Lock()
	status, raw := f.removeStatus, f.removeBody
	f.mu.Unlock()

	if status != 0 {
		writeRaw(w, status, raw)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from wishlist"})
}

func (f *fakeServer) handleProduct(w http.ResponseWriter, r *http.Request) {
	f.hit("product", r)

	id := r.PathValue("id")
	f.mu.Lock()
	p, ok := f.products[id]
	fail := f.failProducts[id]
	f.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Page用：ネットワークを介さず、呼び出し順を制御できるreader
type blockingReader struct {
	mu       sync.Mutex
	rows     map[string][]WishlistRow
	products map[string]Product
	gates    map[string]chan struct{}
	entered  chan string
}

func newBlockingReader() *blockingReader {
	return &blockingReader{
		rows:     map[string][]WishlistRow{},
		products: map[string]Product{},
		gates:    map[string]chan struct{}{},
		entered:  make(chan string, 16),
	}
}

// ctxを見ずにgateが開くまで待つ（遅れて返ってくるレスポンスの再現）
func (b *blockingReader) ListWishlist(ctx context.Context, userID string) ([]WishlistRow, error) {
	b.mu.Lock()
	gate := b.gates[userID]
	b.mu.Unlock()

	select {
	case b.entered <- userID:
	default:
	}
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]WishlistRow(nil), b.rows[userID]...), nil
}

func (b *blockingReader) Product(ctx context.Context, id string) (Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok {
		return Product{}, &APIError{Status: http.StatusNotFound, Message: "not found"}
	}
	return p, nil
}

func (b *blockingReader) setRows(userID string, rows ...WishlistRow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[userID] = rows
}

type staticResolver map[string]string

func (s staticResolver) UserIDByEmail(ctx context.Context, email string) (string, error) {
	id, ok := s[email]
	if !ok {
		return "", &APIError{Status: http.StatusNotFound, Message: "user not found"}
	}
	return id, nil
}
