package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const (
	flashCookie = "touragency_flash"
	flashMaxAge = 60 // seconds

	flashSuccess = "success"
	flashError   = "error"
)

// flash is a one-shot status message shown on the next rendered page.
type flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// addFlash queues a message for the next rendered page, keeping any message
// the request still carries.
func addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	msgs := append(readFlashes(r), flash{Category: category, Message: message})
	data, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlashes returns the pending messages and clears the cookie.
func takeFlashes(w http.ResponseWriter, r *http.Request) []flash {
	if _, err := r.Cookie(flashCookie); err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return readFlashes(r)
}

// readFlashes decodes the flash cookie. A malformed cookie yields no messages.
func readFlashes(r *http.Request) []flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var msgs []flash
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}
