package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxSessionEmailKey = "session_email" // string
	CtxSessionSubKey   = "session_sub"   // string
)

// セッショントークン（HS256のbearer）を検証するミドルウェア。
// 発行は外部。ここではemailクレームを取り出してcontextに入れるだけ
func RequireSession(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Bearer形式か確認してtokenを抜く
			rawToken, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//JWTをパースして検証する（expもここで見る）
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			email, _ := claims["email"].(string)
			email = strings.TrimSpace(email)
			if email == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			sub, _ := claims["sub"].(string)

			c.Set(CtxSessionEmailKey, email)
			c.Set(CtxSessionSubKey, sub)

			return next(c)
		}
	}
}

// SessionEmail はRequireSessionが入れたemailを返す
func SessionEmail(c echo.Context) (string, bool) {
	email, ok := c.Get(CtxSessionEmailKey).(string)
	return email, ok && email != ""
}

func bearerToken(authz string) (string, bool) {
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
