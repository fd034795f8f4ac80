package transcribe

import (
	"LifeLine/pkg/config"
)

// BuildChain assembles the production chain: Whisper, then Deepgram, then
// Google Speech. Backends without credentials are left out.
func BuildChain(cfg config.ASRConfig, opts ...Option) *Chain {
	var entries []Entry
	if w := NewWhisper(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.WhisperModel); w != nil {
		entries = append(entries, Entry{Backend: w, Timeout: cfg.WhisperTimeout, WantsWAV: true})
	}
	if d := NewDeepgram(cfg.DeepgramKey, cfg.DeepgramModel, ""); d != nil {
		entries = append(entries, Entry{Backend: d, Timeout: cfg.DeepgramTimeout})
	}
	if g := NewGoogleSpeech(cfg.GoogleKey, ""); g != nil {
		entries = append(entries, Entry{Backend: g, Timeout: cfg.GoogleTimeout, WantsWAV: true})
	}
	opts = append([]Option{
		WithConverter(NewFFmpeg(cfg.FFmpegPath, cfg.TempDir)),
		WithConvertTimeout(cfg.ConvertTimeout),
	}, opts...)
	return NewChain(entries, opts...)
}
