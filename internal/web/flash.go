package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	flashCookie  = "flash"
	flashNowKey  = "flash_now"
	flashNextKey = "flash_next"
	flashInfo    = "info"
	flashError   = "error"
	flashSuccess = "success"
)

type flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// flashNext queues a message for the next rendered page (after a redirect).
func flashNext(c echo.Context, category, msg string) {
	pending, ok := c.Get(flashNextKey).([]flash)
	if !ok {
		pending = decodeFlashes(c)
	}
	pending = append(pending, flash{Category: category, Message: msg})
	c.Set(flashNextKey, pending)
	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// flashNow shows a message on the page rendered by this request.
func flashNow(c echo.Context, category, msg string) {
	now, _ := c.Get(flashNowKey).([]flash)
	c.Set(flashNowKey, append(now, flash{Category: category, Message: msg}))
}

// consumeFlashes returns queued and current messages and clears the queue.
func consumeFlashes(c echo.Context) []flash {
	out := decodeFlashes(c)
	if len(out) > 0 {
		c.SetCookie(&http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
	now, _ := c.Get(flashNowKey).([]flash)
	return append(out, now...)
}

func decodeFlashes(c echo.Context) []flash {
	ck, err := c.Cookie(flashCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil
	}
	var out []flash
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
