package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

const deepgramBaseURL = "https://api.deepgram.com"

// Deepgram calls the pre-recorded /v1/listen endpoint with the raw clip.
type Deepgram struct {
	client *resty.Client
	model  string
}

// NewDeepgram returns nil when apiKey is empty. baseURL may be blank.
func NewDeepgram(apiKey, model, baseURL string) *Deepgram {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = deepgramBaseURL
	}
	if model == "" {
		model = "nova-2"
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Token "+apiKey)
	return &Deepgram{client: c, model: model}
}

func (d *Deepgram) Name() string { return "deepgram" }

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) Transcribe(ctx context.Context, audio Audio, lang string) (Result, error) {
	if lang == "" {
		lang = "en"
	}
	var out deepgramResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType(audio)).
		SetQueryParams(map[string]string{
			"model":        d.model,
			"language":     lang,
			"punctuate":    "true",
			"numerals":     "true",
			"smart_format": "true",
		}).
		SetBody(audio.Data).
		SetResult(&out).
		Post("/v1/listen")
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return Result{}, fmt.Errorf("deepgram http %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return Result{}, nil
	}
	ch := out.Results.Channels[0]
	detected := ch.DetectedLanguage
	if detected == "" {
		detected = lang
	}
	return Result{
		Text:       ch.Alternatives[0].Transcript,
		Language:   detected,
		Confidence: ch.Alternatives[0].Confidence,
	}, nil
}

var extMIME = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".webm": "audio/webm",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
}

func contentType(a Audio) string {
	if a.MIME != "" && a.MIME != "application/octet-stream" {
		return a.MIME
	}
	if IsWAV(a) {
		return "audio/wav"
	}
	if m, ok := extMIME[strings.ToLower(filepath.Ext(a.Filename))]; ok {
		return m
	}
	return "audio/wav"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
