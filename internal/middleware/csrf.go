package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"
)

// CSRFCookieName is the double-submit cookie holding the session's token.
const CSRFCookieName = "csrf_token"

// CSRFFormField is the form field accepted in place of the X-CSRF-Token header.
const CSRFFormField = "csrf_token"

// CSRF issues a CSRF cookie and verifies modifying requests carry the session token
// in the X-CSRF-Token header or the csrf_token form field, matching the cookie.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionFromContext(r.Context()).CSRFToken
			if token == "" {
				WriteError(w, r, http.StatusForbidden, "missing session")
				return
			}

			cookie, err := r.Cookie(CSRFCookieName)
			hasCookie := err == nil && cookie.Value == token
			if !hasCookie {
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(24 * time.Hour),
				})
			}

			if !isSafeMethod(r.Method) {
				submitted := r.Header.Get("X-CSRF-Token")
				if submitted == "" {
					submitted = r.PostFormValue(CSRFFormField)
				}
				if !hasCookie || !equalTokens(submitted, token) {
					WriteError(w, r, http.StatusForbidden, "invalid CSRF token")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func equalTokens(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
