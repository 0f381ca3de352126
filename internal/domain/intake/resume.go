package intake

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// CheckoutCookieName is the cookie carrying the form snapshot across the
// payment provider's redirect.
const CheckoutCookieName = "neffy_checkout_data"

type checkoutSnapshot struct {
	FormData json.RawMessage `json:"formData"`
}

// IsPaymentRedirect reports whether query carries the parameters the payment
// provider appends when it redirects back.
func IsPaymentRedirect(query url.Values) bool {
	return query.Get("payment_intent") != "" && query.Get("payment_intent_client_secret") != ""
}

// Resume restores a session. Tab state wins. Otherwise, on a payment
// redirect, the session starts at the checkout screen with the aggregate
// from the checkout cookie. Anything unreadable counts as no state.
func Resume(flow *Flow, tab TabStore, query url.Values, checkoutCookie string) *Session {
	s := &Session{flow: flow, tab: tab, data: NewFormData()}

	if data, step, ok := loadTab(tab); ok {
		s.data = data
		s.step = flow.Clamp(step)
	} else if IsPaymentRedirect(query) {
		if data, ok := DecodeCheckoutCookie(checkoutCookie); ok {
			s.data = data
		}
		if i := flow.IndexOf(ScreenCheckout); i >= 0 {
			s.step = i
		}
	}

	s.persist()
	return s
}

func loadTab(tab TabStore) (FormData, int, bool) {
	if tab == nil {
		return FormData{}, 0, false
	}
	raw, ok := tab.Get(TabDataKey)
	if !ok || raw == "" {
		return FormData{}, 0, false
	}
	data := NewFormData()
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return FormData{}, 0, false
	}
	data.normalize()

	step := 0
	if v, ok := tab.Get(TabStepKey); ok {
		if n, err := strconv.Atoi(v); err == nil {
			step = n
		}
	}
	return data, step, true
}

// EncodeCheckoutCookie produces the checkout cookie value for data.
func EncodeCheckoutCookie(data FormData) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return encodeSnapshot(raw)
}

// encodeSnapshot wraps an already-encoded form object.
func encodeSnapshot(formData json.RawMessage) (string, error) {
	raw, err := json.Marshal(checkoutSnapshot{FormData: formData})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeCheckoutCookie reads a checkout cookie value, merging the stored
// fields over an empty aggregate.
func DecodeCheckoutCookie(value string) (FormData, bool) {
	if value == "" {
		return FormData{}, false
	}
	if strings.Contains(value, "%") {
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		if raw, err = base64.RawURLEncoding.DecodeString(value); err != nil {
			return FormData{}, false
		}
	}

	var snap checkoutSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return FormData{}, false
	}
	if !isJSONObject(snap.FormData) {
		return FormData{}, false
	}

	data := NewFormData()
	if err := json.Unmarshal(snap.FormData, &data); err != nil {
		return FormData{}, false
	}
	data.normalize()
	return data, true
}

func isJSONObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
