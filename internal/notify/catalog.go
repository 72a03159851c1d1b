package notify

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a user-facing notification message.
type Key string

const (
	KeyGenerateSuccess Key = "generate.success"
	KeyGenerateFailure Key = "generate.failure"
	KeyDownloadSuccess Key = "download.success"
	KeyDownloadFailure Key = "download.failure"
)

var supportedLocales = []language.Tag{language.English, language.Japanese}

var translations = map[language.Tag]map[Key]string{
	language.English: {
		KeyGenerateSuccess: "Portrait generated successfully!",
		KeyGenerateFailure: "Failed to generate portrait. Please try again.",
		KeyDownloadSuccess: "Image downloaded!",
		KeyDownloadFailure: "Failed to download image",
	},
	language.Japanese: {
		KeyGenerateSuccess: "ポートレートを生成しました！",
		KeyGenerateFailure: "ポートレートの生成に失敗しました。もう一度お試しください。",
		KeyDownloadSuccess: "画像をダウンロードしました！",
		KeyDownloadFailure: "画像のダウンロードに失敗しました",
	},
}

// Catalog renders notification keys in the supported locales.
type Catalog struct {
	builder *catalog.Builder
	matcher language.Matcher
}

// NewCatalog builds the message catalog, falling back to English.
func NewCatalog() *Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			// Keys are plain strings without format verbs, SetString cannot fail.
			_ = b.SetString(tag, string(key), msg)
		}
	}
	return &Catalog{builder: b, matcher: language.NewMatcher(supportedLocales)}
}

// Match resolves Accept-Language style preferences onto a supported locale
// code such as "en" or "ja".
func (c *Catalog) Match(prefs ...string) string {
	tag, _ := language.MatchStrings(c.matcher, prefs...)
	base, _ := tag.Base()
	return base.String()
}

// Message renders key for locale. Locales outside the catalog render in
// English.
func (c *Catalog) Message(locale string, key Key) string {
	tag := language.Make(c.Match(strings.TrimSpace(locale)))
	p := message.NewPrinter(tag, message.Catalog(c.builder))
	return p.Sprintf(string(key))
}
