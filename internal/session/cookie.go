package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

// CookieName はセッションCookieの名前。
const CookieName = "session_id"

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Secret []byte
	Domain string
	Secure bool
	MaxAge int // 秒
}

// Cookies はセッションIDの署名付きCookieを発行・検証する。
// Cookie値は "<id>.<HMAC-SHA256(id)>" 形式で、署名が一致しない値は読み捨てる。
type Cookies struct {
	cfg CookieConfig
}

// NewCookies はCookiesを生成する。
func NewCookies(cfg CookieConfig) *Cookies {
	return &Cookies{cfg: cfg}
}

func (c *Cookies) sign(id string) string {
	mac := hmac.New(sha256.New, c.cfg.Secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Encode はセッションIDに署名を付けたCookie値を返す。
func (c *Cookies) Encode(id string) string {
	return id + "." + c.sign(id)
}

// Decode はCookie値を検証してセッションIDを返す。
func (c *Cookies) Decode(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" || sig == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(id))) {
		return "", false
	}
	return id, true
}

// Read はリクエストのCookieから検証済みのセッションIDを取り出す。
func (c *Cookies) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return c.Decode(cookie.Value)
}

// Set はセッションCookieをレスポンスに設定する（HTTP Only）。
func (c *Cookies) Set(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    c.Encode(id),
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   c.cfg.MaxAge,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear はセッションCookieを削除する。
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
