package middleware

import (
	"strings"

	"LifeLine/pkg/i18n"

	"github.com/gin-gonic/gin"
)

// LangField is the gin context key holding the negotiated language code.
const LangField = "lang"

// LanguageMiddleware picks the response language from ?lang=, then
// Accept-Language, matched against the loaded locales.
func LanguageMiddleware(i18nSupport *i18n.I18nSupport) gin.HandlerFunc {
	return func(c *gin.Context) {
		hint := strings.TrimSpace(c.Query("lang"))
		if hint == "" {
			hint = c.GetHeader("Accept-Language")
		}
		lang := "en"
		if i18nSupport != nil && hint != "" {
			lang = i18nSupport.Match(hint)
		}
		c.Set(LangField, lang)
		c.Next()
	}
}

// CurrentLang returns the language chosen by LanguageMiddleware.
func CurrentLang(c *gin.Context) string {
	if l := c.GetString(LangField); l != "" {
		return l
	}
	return "en"
}
