package middleware

import (
	"context"
	"net/http"
	"strings"
)

type localeContextKey struct{}

var LocaleKey = localeContextKey{}

// LocaleMatcher maps language preferences onto a supported locale code.
type LocaleMatcher interface {
	Match(prefs ...string) string
}

func I18N(defaultLocale string, matcher LocaleMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, defaultLocale, matcher)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale prefers X-Locale, then the locale query parameter, then
// Accept-Language, then the configured fallback.
func detectLocale(r *http.Request, fallback string, matcher LocaleMatcher) string {
	var prefs []string
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		prefs = append(prefs, v)
	}
	if v := strings.TrimSpace(r.URL.Query().Get("locale")); v != "" {
		prefs = append(prefs, v)
	}
	if v := strings.TrimSpace(r.Header.Get("Accept-Language")); v != "" {
		prefs = append(prefs, v)
	}
	if len(prefs) == 0 {
		prefs = append(prefs, fallback)
	}
	if matcher == nil {
		return baseLanguage(prefs[0])
	}
	// Only the first stated preference counts; the fallback is used when
	// nothing was stated at all.
	return matcher.Match(prefs[0])
}

func baseLanguage(locale string) string {
	locale = strings.TrimSpace(strings.Split(locale, ",")[0])
	locale = strings.Split(locale, ";")[0]
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	locale = strings.ToLower(locale)
	if locale == "" {
		return "en"
	}
	return locale
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}
