// Package transcribe turns an emergency voice clip into text by walking an
// ordered list of speech-to-text backends.
package transcribe

import (
	"context"
	"strings"
	"time"

	"LifeLine/pkg/errors"
	"LifeLine/pkg/logger"

	"go.uber.org/zap"
)

// Audio is an uploaded clip held in memory.
type Audio struct {
	Data     []byte
	Filename string
	MIME     string
}

func (a Audio) Empty() bool { return len(a.Data) == 0 }

// Result is what a single backend produced.
type Result struct {
	Text       string
	Language   string
	Confidence float64
}

// Backend is a pluggable speech-to-text service.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, audio Audio, lang string) (Result, error)
}

// Entry is one step of the chain. Timeout bounds this step only.
type Entry struct {
	Backend  Backend
	Timeout  time.Duration
	WantsWAV bool
}

// Converter produces a 16 kHz mono PCM WAV rendition of a clip.
type Converter interface {
	ToWAV(ctx context.Context, audio Audio) (Audio, error)
}

// TranscriptResult is the chain output. Confidence 0 means the text is a
// canned placeholder rather than recognised speech.
type TranscriptResult struct {
	OriginalText     string  `json:"originalText"`
	EnglishText      string  `json:"englishText"`
	DetectedLanguage string  `json:"detectedLanguage"`
	Confidence       float64 `json:"confidence"`
	Backend          string  `json:"backend,omitempty"`
	Placeholder      bool    `json:"placeholder"`
	Supplied         bool    `json:"supplied"`
}

// Request carries a clip, a language hint and an optional transcript the
// client already produced.
type Request struct {
	Audio    Audio
	Language string
	Supplied string
}

// AttemptHook observes every backend attempt; err is nil on success.
type AttemptHook func(backend string, err error, elapsed time.Duration)

// Chain is immutable after NewChain and safe for concurrent use.
type Chain struct {
	entries     []Entry
	converter   Converter
	convertWait time.Duration
	placeholder func(lang string) string
	onAttempt   AttemptHook
	log         *zap.Logger
}

type Option func(*Chain)

func WithConverter(c Converter) Option { return func(ch *Chain) { ch.converter = c } }

// WithConvertTimeout bounds one audio conversion. Zero keeps the default.
func WithConvertTimeout(d time.Duration) Option {
	return func(ch *Chain) {
		if d > 0 {
			ch.convertWait = d
		}
	}
}

// WithPlaceholder sets the canned-message lookup used when every backend
// fails.
func WithPlaceholder(fn func(lang string) string) Option {
	return func(ch *Chain) { ch.placeholder = fn }
}

func WithAttemptHook(h AttemptHook) Option { return func(ch *Chain) { ch.onAttempt = h } }

func WithLogger(l *zap.Logger) Option { return func(ch *Chain) { ch.log = l } }

const (
	DefaultPlaceholder    = "Emergency! I need immediate help and assistance."
	DefaultConvertTimeout = 30 * time.Second
)

// NewChain keeps entries in the given order. Entries without a backend
// are dropped.
func NewChain(entries []Entry, opts ...Option) *Chain {
	ch := &Chain{log: logger.Named("transcribe"), convertWait: DefaultConvertTimeout}
	for _, e := range entries {
		if e.Backend != nil {
			ch.entries = append(ch.entries, e)
		}
	}
	for _, o := range opts {
		o(ch)
	}
	if ch.placeholder == nil {
		ch.placeholder = func(string) string { return DefaultPlaceholder }
	}
	return ch
}

// Names lists backends in attempt order.
func (c *Chain) Names() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Backend.Name()
	}
	return out
}

// Transcribe never fails: when no backend yields text it returns the
// placeholder for req.Language.
func (c *Chain) Transcribe(ctx context.Context, req Request) TranscriptResult {
	lang := NormalizeLang(req.Language)

	if text := strings.TrimSpace(req.Supplied); text != "" && !IsPlaceholderText(text) {
		return TranscriptResult{
			OriginalText:     text,
			DetectedLanguage: lang,
			Confidence:       1,
			Supplied:         true,
		}
	}

	if !req.Audio.Empty() {
		var wav *Audio
		for _, e := range c.entries {
			if ctx.Err() != nil {
				break
			}
			input := req.Audio
			if e.WantsWAV && !IsWAV(req.Audio) {
				if wav == nil {
					converted := c.toWAV(ctx, req.Audio)
					wav = &converted
				}
				input = *wav
			}

			res, err := c.attempt(ctx, e, input, lang)
			if err != nil {
				c.log.Warn("transcription backend failed",
					zap.String("backend", e.Backend.Name()), zap.Error(err))
				continue
			}
			detected := NormalizeLang(res.Language)
			if res.Language == "" {
				detected = lang
			}
			return TranscriptResult{
				OriginalText:     res.Text,
				DetectedLanguage: detected,
				Confidence:       scoreOrUnknown(res.Confidence),
				Backend:          e.Backend.Name(),
			}
		}
	}

	c.log.Warn("all transcription backends unavailable, using placeholder",
		zap.String("lang", lang), zap.Int("backends", len(c.entries)))
	return TranscriptResult{
		OriginalText:     c.placeholder(lang),
		DetectedLanguage: lang,
		Confidence:       0,
		Placeholder:      true,
	}
}

func (c *Chain) attempt(ctx context.Context, e Entry, audio Audio, lang string) (res Result, err error) {
	actx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = errors.OfKindf(errors.KindTranscriptionUnavailable, "%s panicked: %v", e.Backend.Name(), r)
		}
		if c.onAttempt != nil {
			c.onAttempt(e.Backend.Name(), err, time.Since(start))
		}
	}()

	res, err = e.Backend.Transcribe(actx, audio, lang)
	if err != nil {
		return Result{}, errors.WrapKind(err, errors.KindTranscriptionUnavailable, e.Backend.Name())
	}
	res.Text = strings.TrimSpace(res.Text)
	if res.Text == "" || isNoSpeechMarker(res.Text) {
		return Result{}, errors.OfKindf(errors.KindTranscriptionUnavailable, "%s returned no speech", e.Backend.Name())
	}
	return res, nil
}

func (c *Chain) toWAV(ctx context.Context, audio Audio) Audio {
	if c.converter == nil {
		return audio
	}
	cctx, cancel := context.WithTimeout(ctx, c.convertWait)
	defer cancel()
	out, err := c.converter.ToWAV(cctx, audio)
	if err != nil || out.Empty() {
		c.log.Warn("audio conversion failed, sending original bytes", zap.Error(err))
		return audio
	}
	return out
}

var noSpeechMarkers = []string{
	"[no speech detected]",
	"[no speech detected in audio]",
	"[no transcription available]",
}

func isNoSpeechMarker(text string) bool {
	t := strings.ToLower(text)
	for _, m := range noSpeechMarkers {
		if t == m {
			return true
		}
	}
	return false
}

// NormalizeLang reduces a locale or language name to a base code, "en"
// when unknown.
func NormalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" || lang == "unknown" {
		return "en"
	}
	if code, ok := languageNames[lang]; ok {
		return code
	}
	return lang
}

// Whisper reports languages by name.
var languageNames = map[string]string{
	"english":   "en",
	"hindi":     "hi",
	"kannada":   "kn",
	"tamil":     "ta",
	"telugu":    "te",
	"malayalam": "ml",
	"marathi":   "mr",
	"bengali":   "bn",
}

// unscoredConfidence stands in for backends that return text without a
// score. Zero is reserved for placeholders.
const unscoredConfidence = 0.5

func scoreOrUnknown(v float64) float64 {
	switch {
	case v <= 0:
		return unscoredConfidence
	case v > 1:
		return 1
	}
	return v
}
