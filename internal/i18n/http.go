package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	// LangParam is the query parameter that selects a locale.
	LangParam = "lang"
	// LangCookie stores the caller's locale preference.
	LangCookie = "lang"
)

// Resolve picks the locale for r: the lang query parameter, then the lang
// cookie, then Accept-Language. The bool reports whether the query
// parameter won and should be persisted.
func (b *Bundle) Resolve(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return b.Match(), false
	}

	if tag, ok := b.Parse(r.URL.Query().Get(LangParam)); ok {
		return tag, true
	}

	if c, err := r.Cookie(LangCookie); err == nil {
		if tag, ok := b.Parse(c.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return b.Match(tags...), false
		}
	}

	return b.Match(), false
}

// SetCookie persists the selected locale on the response.
func SetCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookie,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
