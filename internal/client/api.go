package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const maxResponseBody = 1 << 20

// サーバーが返した非2xx。Messageは {"error"} → {"message"} の順で拾う
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// ErrCircuitOpen はブレーカーが開いていて送らなかった時
var ErrCircuitOpen = gobreaker.ErrOpenState

// ウィッシュリストの1行。userId/productIdは正規化済み
type WishlistRow struct {
	ID        int64  `json:"id"`
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
}

func (r *WishlistRow) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        any `json:"id"`
		UserID    any `json:"userId"`
		ProductID any `json:"productId"`
	}
	if err := decodeNumbers(b, &raw); err != nil {
		return err
	}

	*r = WishlistRow{UserID: NormalizeID(raw.UserID), ProductID: NormalizeID(raw.ProductID)}
	if n, ok := raw.ID.(json.Number); ok {
		id, err := n.Int64()
		if err != nil {
			return fmt.Errorf("wishlist row id: %w", err)
		}
		r.ID = id
	}
	return nil
}

// GET /api/products/:id の結果
type Product struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	MainImage string `json:"mainImage"`
	Slug      string `json:"slug"`
	InStock   int64  `json:"inStock"`
}

func (p *Product) UnmarshalJSON(b []byte) error {
	type plain Product
	var raw struct {
		plain
		ID any `json:"id"`
	}
	if err := decodeNumbers(b, &raw); err != nil {
		return err
	}

	*p = Product(raw.plain)
	p.ID = NormalizeID(raw.ID)
	return nil
}

// ストアに入れる形へ
func (p Product) WishlistItem() ProductInWishlist {
	return ProductInWishlist{
		ID:                NormalizeID(p.ID),
		Title:             p.Title,
		Price:             p.Price,
		Image:             p.MainImage,
		Slug:              p.Slug,
		StockAvailability: p.InStock,
	}
}

// POST /api/wishlist の結果
type CreateResult struct {
	Message string
	Item    WishlistRow
	Created bool
}

type BreakerConfig struct {
	Name string
	// half-openで通す数
	MaxRequests uint32
	// closed中にカウントをリセットする周期
	Interval time.Duration
	// openからhalf-openになるまで
	Timeout time.Duration
	// 連続失敗がこれに達したらopen
	ConsecutiveFailures uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "storefront-api",
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// API はストアフロントサーバーのHTTPクライアント。
// 自動リトライはしない。失敗は呼び出し側（Heart）がロールバックして通知する。
type API struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	logger     *zap.Logger
}

type APIOption func(a *API)

func WithHTTPClient(c *http.Client) APIOption {
	return func(a *API) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithSessionToken はセッションのbearerトークンを付ける
func WithSessionToken(token string) APIOption {
	return func(a *API) {
		a.token = strings.TrimSpace(token)
	}
}

func WithLogger(l *zap.Logger) APIOption {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithBreakerConfig(cfg BreakerConfig) APIOption {
	return func(a *API) {
		a.breaker = newBreaker(cfg, a)
	}
}

type rawResponse struct {
	status int
	body   []byte
}

// DI
func NewAPI(baseURL string, opts ...APIOption) *API {
	a := &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     zap.L().Named("wishlist.client"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.breaker == nil {
		a.breaker = newBreaker(DefaultBreakerConfig(), a)
	}
	return a
}

func newBreaker(cfg BreakerConfig, a *API) *gobreaker.CircuitBreaker[*rawResponse] {
	return gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// 呼び出し側のキャンセルはサーバー障害として数えない
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			a.logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// セッションemailからユーザーIDを引く
func (a *API) UserIDByEmail(ctx context.Context, email string) (string, error) {
	var out struct {
		ID any `json:"id"`
	}
	if err := a.getJSON(ctx, "/api/users/email/"+url.PathEscape(email), &out); err != nil {
		return "", err
	}
	return NormalizeID(out.ID), nil
}

func (a *API) ListAllWishlist(ctx context.Context) ([]WishlistRow, error) {
	rows := []WishlistRow{}
	if err := a.getJSON(ctx, "/api/wishlist", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ユーザーの全行（新しい順）
func (a *API) ListWishlist(ctx context.Context, userID string) ([]WishlistRow, error) {
	rows := []WishlistRow{}
	if err := a.getJSON(ctx, "/api/wishlist/"+url.PathEscape(userID), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// 1件確認。404はエラーではなく found=false
func (a *API) GetWishlistItem(ctx context.Context, userID string, productID string) (WishlistRow, bool, error) {
	var row WishlistRow
	err := a.getJSON(ctx, wishlistItemPath(userID, productID), &row)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return WishlistRow{}, false, nil
	}
	if err != nil {
		return WishlistRow{}, false, err
	}
	return row, true, nil
}

// 追加。既にある場合も成功（Created=false）
func (a *API) AddToWishlist(ctx context.Context, userID string, productID string) (CreateResult, error) {
	body := map[string]string{"userId": userID, "productId": productID}
	res, err := a.do(ctx, http.MethodPost, "/api/wishlist", body)
	if err != nil {
		return CreateResult{}, err
	}

	var out struct {
		Message string      `json:"message"`
		Item    WishlistRow `json:"item"`
	}
	if err := json.Unmarshal(res.body, &out); err != nil {
		return CreateResult{}, fmt.Errorf("decode create response: %w", err)
	}
	return CreateResult{
		Message: out.Message,
		Item:    out.Item,
		Created: res.status == http.StatusCreated,
	}, nil
}

// 削除。サーバーのメッセージを返す
func (a *API) RemoveFromWishlist(ctx context.Context, userID string, productID string) (string, error) {
	res, err := a.do(ctx, http.MethodDelete, wishlistItemPath(userID, productID), nil)
	if err != nil {
		return "", err
	}

	var out struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(res.body, &out)
	return out.Message, nil
}

func (a *API) Product(ctx context.Context, id string) (Product, error) {
	var p Product
	if err := a.getJSON(ctx, "/api/products/"+url.PathEscape(id), &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func wishlistItemPath(userID string, productID string) string {
	return "/api/wishlist/" + url.PathEscape(userID) + "/" + url.PathEscape(productID)
}

func (a *API) getJSON(ctx context.Context, path string, out any) error {
	res, err := a.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// 1リクエストをブレーカー越しに送る。4xxはブレーカーの失敗に数えない
func (a *API) do(ctx context.Context, method string, path string, body any) (*rawResponse, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	res, err := a.breaker.Execute(func() (*rawResponse, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Cache-Control", "no-store")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if a.token != "" {
			req.Header.Set("Authorization", "Bearer "+a.token)
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, err
		}
		raw := &rawResponse{status: resp.StatusCode, body: b}
		if raw.status >= http.StatusInternalServerError {
			return nil, newAPIError(raw)
		}
		return raw, nil
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if res.status >= http.StatusBadRequest {
		return nil, newAPIError(res)
	}
	return res, nil
}

func newAPIError(res *rawResponse) *APIError {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(res.body, &body)

	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	return &APIError{Status: res.status, Message: msg}
}

// 失敗時にユーザーへ見せる文言。サーバーの文言が無ければfallback
func messageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func decodeNumbers(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}
