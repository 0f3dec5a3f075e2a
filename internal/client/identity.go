package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrNotSignedIn はセッションが無い、またはemailからユーザーが引けない時
var ErrNotSignedIn = errors.New("not signed in")

type UserResolver interface {
	UserIDByEmail(ctx context.Context, email string) (string, error)
}

// 現在のユーザーIDを返す約束（HeartとPageが使う）
type UserIdentity interface {
	Resolve(ctx context.Context) (string, error)
}

// Session はサインイン中のemailを持つ。変わったら購読者に知らせる
type Session struct {
	mu        sync.Mutex
	email     string
	listeners map[int]func(email string)
	next      int
}

func NewSession(email string) *Session {
	return &Session{
		email:     strings.TrimSpace(email),
		listeners: map[int]func(string){},
	}
}

func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// 空文字でサインアウト
func (s *Session) SetEmail(email string) {
	email = strings.TrimSpace(email)

	s.mu.Lock()
	if s.email == email {
		s.mu.Unlock()
		return
	}
	s.email = email
	ls := make([]func(string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		ls = append(ls, fn)
	}
	s.mu.Unlock()

	for _, fn := range ls {
		fn(email)
	}
}

func (s *Session) Subscribe(fn func(email string)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
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

// Identity はセッションemail → ユーザーID の解決
type Identity struct {
	users   UserResolver
	session *Session
	logger  *zap.Logger
}

// DI
func NewIdentity(users UserResolver, session *Session) *Identity {
	return &Identity{
		users:   users,
		session: session,
		logger:  zap.L().Named("wishlist.identity"),
	}
}

// Resolve は未ログイン・未登録なら ErrNotSignedIn を返す。
// 通信エラーはそのまま返す。
func (i *Identity) Resolve(ctx context.Context) (string, error) {
	email := ""
	if i.session != nil {
		email = i.session.Email()
	}
	if email == "" {
		return "", ErrNotSignedIn
	}

	id, err := i.users.UserIDByEmail(ctx, email)
	var apiErr *APIError
	if errors.As(err, &apiErr) && isIdentityRejection(apiErr.Status) {
		i.logger.Debug("user lookup rejected", zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))
		return "", ErrNotSignedIn
	}
	if err != nil {
		return "", fmt.Errorf("resolve user id: %w", err)
	}
	if id == "" {
		return "", ErrNotSignedIn
	}
	return id, nil
}

// セッションが変わったらfnを呼ぶ
func (i *Identity) Subscribe(fn func()) func() {
	if i.session == nil {
		return func() {}
	}
	return i.session.Subscribe(func(string) { fn() })
}

func isIdentityRejection(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	default:
		return false
	}
}
