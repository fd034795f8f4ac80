package transcribe

import (
	"bytes"
	"context"
	"math"

	"github.com/sashabaranov/go-openai"
)

// Whisper transcribes through the OpenAI audio API.
type Whisper struct {
	client *openai.Client
	model  string
}

// NewWhisper returns nil when apiKey is empty so the chain skips it.
func NewWhisper(apiKey, baseURL, model string) *Whisper {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{client: openai.NewClientWithConfig(cfg), model: model}
}

func (w *Whisper) Name() string { return "openai-whisper" }

func (w *Whisper) Transcribe(ctx context.Context, audio Audio, lang string) (Result, error) {
	name := audio.Filename
	if name == "" {
		name = "voice.wav"
	}
	req := openai.AudioRequest{
		Model:    w.model,
		FilePath: name,
		Reader:   bytes.NewReader(audio.Data),
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	// whisper auto-detects; only pin non-English hints
	if lang != "" && lang != "en" {
		req.Language = lang
	}

	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       resp.Text,
		Language:   resp.Language,
		Confidence: segmentConfidence(resp),
	}, nil
}

// segmentConfidence averages exp(avg_logprob) over segments.
func segmentConfidence(resp openai.AudioResponse) float64 {
	if len(resp.Segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range resp.Segments {
		sum += math.Exp(s.AvgLogprob)
	}
	return sum / float64(len(resp.Segments))
}
