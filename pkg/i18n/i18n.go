package i18n

import (
	"embed"
	"encoding/json"
	"path"

	"LifeLine/pkg/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Message ids shared by the service.
const (
	MsgTranscriptPlaceholder = "transcript.placeholder"
	MsgAlertSent             = "alert.sent"
	MsgNoContacts            = "alert.no_contacts"
	MsgNoPhones              = "alert.no_phones"
	MsgAlertFailed           = "alert.failed"
)

// I18nSupport wraps a go-i18n bundle loaded from the embedded locales.
type I18nSupport struct {
	bundle    *i18n.Bundle
	supported []language.Tag
	matcher   language.Matcher
}

// NewI18nSupport loads every embedded locale. The default language is
// listed first so that the matcher falls back to it.
func NewI18nSupport(defaultLang string) (*I18nSupport, error) {
	def := language.MustParse(defaultLang)
	bundle := i18n.NewBundle(def)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	supported := []language.Tag{def}
	for _, e := range entries {
		name := path.Join("locales", e.Name())
		buf, err := localeFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		mf, err := bundle.ParseMessageFileBytes(buf, name)
		if err != nil {
			logger.Warn("failed to load locale", zap.String("file", name), zap.Error(err))
			continue
		}
		if mf.Tag != def {
			supported = append(supported, mf.Tag)
		}
	}

	return &I18nSupport{
		bundle:    bundle,
		supported: supported,
		matcher:   language.NewMatcher(supported),
	}, nil
}

// Match maps any language hint ("hi-IN", "kn", "Hindi" is not accepted)
// to the closest supported base code, e.g. "hi".
func (i *I18nSupport) Match(hint string) string {
	tag, _ := language.MatchStrings(i.matcher, hint)
	base, _ := tag.Base()
	return base.String()
}

// Supported reports whether the hint resolves to a loaded locale with at
// least some confidence.
func (i *I18nSupport) Supported(hint string) bool {
	t, err := language.Parse(hint)
	if err != nil {
		return false
	}
	_, _, conf := i.matcher.Match(t)
	return conf >= language.High
}

// T returns the localized message, or the key when it cannot be resolved.
func (i *I18nSupport) T(languageTag, key string, templateData map[string]interface{}) string {
	localizer := i18n.NewLocalizer(i.bundle, languageTag)

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		logger.Debug("translation missing", zap.String("key", key), zap.String("lang", languageTag), zap.Error(err))
		if translation != "" {
			return translation
		}
		return key
	}

	return translation
}

// TWithDefaultLang resolves key in the bundle's default language.
func (i *I18nSupport) TWithDefaultLang(key string, templateData map[string]interface{}) string {
	return i.T("", key, templateData)
}
