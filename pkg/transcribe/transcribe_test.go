package transcribe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name  string
	calls int32
	fn    func(ctx context.Context, audio Audio, lang string) (Result, error)
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Transcribe(ctx context.Context, audio Audio, lang string) (Result, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fn(ctx, audio, lang)
}

func failing(name string) *fakeBackend {
	return &fakeBackend{name: name, fn: func(context.Context, Audio, string) (Result, error) {
		return Result{}, errors.New("boom")
	}}
}

func returning(name string, r Result) *fakeBackend {
	return &fakeBackend{name: name, fn: func(context.Context, Audio, string) (Result, error) {
		return r, nil
	}}
}

type mockConverter struct{ mock.Mock }

func (m *mockConverter) ToWAV(ctx context.Context, a Audio) (Audio, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(Audio), args.Error(1)
}

var webm = Audio{Data: []byte("\x1aE\xdf\xa3webm-bytes"), Filename: "clip.webm", MIME: "audio/webm"}

func TestFallsThroughToSecondBackend(t *testing.T) {
	first := failing("first")
	second := returning("second", Result{Text: "help", Confidence: 0.9})

	ch := NewChain([]Entry{{Backend: first}, {Backend: second}})
	got := ch.Transcribe(context.Background(), Request{Audio: webm, Language: "en"})

	assert.Equal(t, "help", got.OriginalText)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, "second", got.Backend)
	assert.False(t, got.Placeholder)
	assert.EqualValues(t, 1, first.calls)
	assert.EqualValues(t, 1, second.calls)
}

func TestStopsAtFirstSuccess(t *testing.T) {
	first := returning("first", Result{Text: "bachao", Language: "hi", Confidence: 0.8})
	second := returning("second", Result{Text: "never"})

	got := NewChain([]Entry{{Backend: first}, {Backend: second}}).
		Transcribe(context.Background(), Request{Audio: webm})

	assert.Equal(t, "bachao", got.OriginalText)
	assert.Equal(t, "hi", got.DetectedLanguage)
	assert.EqualValues(t, 0, second.calls)
}

func TestPlaceholderWhenAllFail(t *testing.T) {
	ch := NewChain(
		[]Entry{{Backend: failing("a")}, {Backend: returning("b", Result{Text: "  "})}, {Backend: returning("c", Result{Text: "[No speech detected]"})}},
		WithPlaceholder(func(lang string) string { return "canned-" + lang }),
	)
	got := ch.Transcribe(context.Background(), Request{Audio: webm, Language: "hi-IN"})

	assert.True(t, got.Placeholder)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, "canned-hi", got.OriginalText)
	assert.Equal(t, "hi", got.DetectedLanguage)
}

func TestPlaceholderWithNoBackends(t *testing.T) {
	got := NewChain(nil).Transcribe(context.Background(), Request{Audio: webm})
	assert.True(t, got.Placeholder)
	assert.Equal(t, DefaultPlaceholder, got.OriginalText)
	assert.Equal(t, "en", got.DetectedLanguage)
}

func TestSuppliedTranscriptSkipsChain(t *testing.T) {
	b := returning("b", Result{Text: "from audio"})
	ch := NewChain([]Entry{{Backend: b}})

	got := ch.Transcribe(context.Background(), Request{Audio: webm, Supplied: "I fell down", Language: "en"})
	assert.Equal(t, "I fell down", got.OriginalText)
	assert.True(t, got.Supplied)
	assert.EqualValues(t, 0, b.calls)

	got = ch.Transcribe(context.Background(), Request{Audio: webm, Supplied: PendingText})
	assert.Equal(t, "from audio", got.OriginalText)
	assert.EqualValues(t, 1, b.calls)
}

func TestPerEntryTimeout(t *testing.T) {
	slow := &fakeBackend{name: "slow", fn: func(ctx context.Context, _ Audio, _ string) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}}
	fast := returning("fast", Result{Text: "ok", Confidence: 0.7})

	var attempts []string
	ch := NewChain(
		[]Entry{{Backend: slow, Timeout: 20 * time.Millisecond}, {Backend: fast, Timeout: time.Second}},
		WithAttemptHook(func(name string, err error, _ time.Duration) {
			attempts = append(attempts, name)
		}),
	)

	start := time.Now()
	got := ch.Transcribe(context.Background(), Request{Audio: webm})
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "ok", got.OriginalText)
	assert.Equal(t, []string{"slow", "fast"}, attempts)
}

func TestPanickingBackendIsSkipped(t *testing.T) {
	bad := &fakeBackend{name: "bad", fn: func(context.Context, Audio, string) (Result, error) {
		panic("nil map")
	}}
	got := NewChain([]Entry{{Backend: bad}, {Backend: returning("good", Result{Text: "fine"})}}).
		Transcribe(context.Background(), Request{Audio: webm})
	assert.Equal(t, "fine", got.OriginalText)
}

func TestUnscoredTextIsNotPlaceholder(t *testing.T) {
	got := NewChain([]Entry{{Backend: returning("x", Result{Text: "help"})}}).
		Transcribe(context.Background(), Request{Audio: webm})
	assert.Greater(t, got.Confidence, 0.0)
	assert.False(t, got.Placeholder)
}

func TestConversionOncePerRequest(t *testing.T) {
	wav := Audio{Data: []byte("RIFF\x00\x00\x00\x00WAVEfmt "), Filename: "clip.wav", MIME: "audio/wav"}
	conv := &mockConverter{}
	conv.On("ToWAV", mock.Anything, webm).Return(wav, nil).Once()

	var seen []Audio
	record := func(name string) *fakeBackend {
		return &fakeBackend{name: name, fn: func(_ context.Context, a Audio, _ string) (Result, error) {
			seen = append(seen, a)
			return Result{}, errors.New("no")
		}}
	}

	ch := NewChain([]Entry{
		{Backend: record("a"), WantsWAV: true},
		{Backend: record("b")},
		{Backend: record("c"), WantsWAV: true},
	}, WithConverter(conv))
	ch.Transcribe(context.Background(), Request{Audio: webm})

	conv.AssertExpectations(t)
	require.Len(t, seen, 3)
	assert.Equal(t, wav, seen[0])
	assert.Equal(t, webm, seen[1])
	assert.Equal(t, wav, seen[2])
}

func TestConversionFailureUsesOriginal(t *testing.T) {
	conv := &mockConverter{}
	conv.On("ToWAV", mock.Anything, webm).Return(Audio{}, errors.New("ffmpeg missing"))

	var got Audio
	b := &fakeBackend{name: "a", fn: func(_ context.Context, a Audio, _ string) (Result, error) {
		got = a
		return Result{Text: "ok"}, nil
	}}
	NewChain([]Entry{{Backend: b, WantsWAV: true}}, WithConverter(conv)).
		Transcribe(context.Background(), Request{Audio: webm})
	assert.Equal(t, webm, got)
}

type stuckConverter struct{}

func (stuckConverter) ToWAV(ctx context.Context, _ Audio) (Audio, error) {
	<-ctx.Done()
	return Audio{}, ctx.Err()
}

func TestConversionIsTimeBounded(t *testing.T) {
	var got Audio
	b := &fakeBackend{name: "a", fn: func(_ context.Context, a Audio, _ string) (Result, error) {
		got = a
		return Result{Text: "ok"}, nil
	}}
	ch := NewChain([]Entry{{Backend: b, WantsWAV: true}},
		WithConverter(stuckConverter{}), WithConvertTimeout(20*time.Millisecond))

	start := time.Now()
	res := ch.Transcribe(context.Background(), Request{Audio: webm})
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "ok", res.OriginalText)
	assert.Equal(t, webm, got)
}

func TestWAVInputNotConverted(t *testing.T) {
	wav := Audio{Data: []byte("RIFF\x10\x00\x00\x00WAVEfmt ")}
	conv := &mockConverter{}
	b := returning("a", Result{Text: "ok"})
	NewChain([]Entry{{Backend: b, WantsWAV: true}}, WithConverter(conv)).
		Transcribe(context.Background(), Request{Audio: wav})
	conv.AssertNotCalled(t, "ToWAV", mock.Anything, mock.Anything)
}

func TestSuppliedTranscriptContract(t *testing.T) {
	text, ok := SuppliedTranscript("🚨 EMERGENCY: mujhe madad chahiye")
	assert.True(t, ok)
	assert.Equal(t, "mujhe madad chahiye", text)

	_, ok = SuppliedTranscript("🚨 EMERGENCY: " + PendingText)
	assert.False(t, ok)
	_, ok = SuppliedTranscript("🚨 EMERGENCY:")
	assert.False(t, ok)
	_, ok = SuppliedTranscript("help me")
	assert.False(t, ok)
}

func TestNormalizeLangCodes(t *testing.T) {
	assert.Equal(t, "en", NormalizeLang(""))
	assert.Equal(t, "hi", NormalizeLang("hi-IN"))
	assert.Equal(t, "kn", NormalizeLang("Kannada"))
	assert.Equal(t, "en", NormalizeLang("unknown"))
}

func TestNames(t *testing.T) {
	ch := NewChain([]Entry{{Backend: failing("a")}, {}, {Backend: failing("b")}})
	assert.Equal(t, []string{"a", "b"}, ch.Names())
}
