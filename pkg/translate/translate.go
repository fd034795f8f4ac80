// Package translate renders alert text in English. Failures never block an
// alert; the gate hands back the source text instead.
package translate

import (
	"context"
	"strings"
	"sync"
	"time"

	"LifeLine/pkg/errors"
	"LifeLine/pkg/logger"

	"go.uber.org/zap"
)

// Translator is a translation backend.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang string) (string, error)
}

// FallbackHook is told about every translation that fell back to the
// source text.
type FallbackHook func(backend string, err error)

// Gate is immutable and safe for concurrent use.
type Gate struct {
	backend    Translator
	timeout    time.Duration
	onFallback FallbackHook
	log        *zap.Logger
}

// NewGate accepts a nil backend, in which case every non-English text is
// returned unchanged.
func NewGate(backend Translator, timeout time.Duration, onFallback FallbackHook) *Gate {
	return &Gate{
		backend:    backend,
		timeout:    timeout,
		onFallback: onFallback,
		log:        logger.Named("translate"),
	}
}

// IsEnglish reports whether lang names English in any common spelling.
func IsEnglish(lang string) bool {
	l := strings.ToLower(strings.TrimSpace(lang))
	return l == "en" || strings.HasPrefix(l, "en-") || strings.HasPrefix(l, "en_") || l == "english"
}

// ToEnglish returns text in English, or text itself when the source is
// English, the text is empty, or the backend fails.
func (g *Gate) ToEnglish(ctx context.Context, text, sourceLang string) string {
	if strings.TrimSpace(text) == "" || IsEnglish(sourceLang) {
		return text
	}
	if g.backend == nil {
		g.fallback("none", errors.OfKind(errors.KindTranslationUnavailable, "no translation backend configured"))
		return text
	}

	tctx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.call(tctx, text, sourceLang)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errors.OfKind(errors.KindTranslationUnavailable, "empty translation")
	}
	if err != nil {
		g.fallback(g.backend.Name(), errors.WrapKind(err, errors.KindTranslationUnavailable, g.backend.Name()))
		return text
	}
	return out
}

// call turns a backend panic into an ordinary failure.
func (g *Gate) call(ctx context.Context, text, sourceLang string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.OfKindf(errors.KindTranslationUnavailable, "%s panicked: %v", g.backend.Name(), r)
		}
	}()
	return g.backend.Translate(ctx, text, sourceLang)
}

// Batch translates element-wise. The result has the same length and order
// as texts.
func (g *Gate) Batch(ctx context.Context, texts []string, sourceLang string) []string {
	out := make([]string, len(texts))
	if IsEnglish(sourceLang) {
		copy(out, texts)
		return out
	}

	var wg sync.WaitGroup
	for i, t := range texts {
		wg.Add(1)
		go func(i int, t string) {
			defer wg.Done()
			out[i] = g.ToEnglish(ctx, t, sourceLang)
		}(i, t)
	}
	wg.Wait()
	return out
}

func (g *Gate) fallback(backend string, err error) {
	g.log.Warn("translation unavailable, keeping source text", zap.String("backend", backend), zap.Error(err))
	if g.onFallback != nil {
		g.onFallback(backend, err)
	}
}
