package transcribe

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

const googleSpeechBaseURL = "https://speech.googleapis.com"

// Hints that bias recognition towards distress vocabulary.
var emergencyPhrases = []string{
	"emergency", "help", "hospital", "ambulance", "pain", "accident",
	"injury", "call police", "fire", "poison", "drowning",
}

var alternativeLanguages = []string{"hi-IN", "kn-IN", "ta-IN", "te-IN", "ml-IN"}

// GoogleSpeech calls the Cloud Speech-to-Text v1 recognize endpoint with an
// API key.
type GoogleSpeech struct {
	client *resty.Client
	apiKey string
}

func NewGoogleSpeech(apiKey, baseURL string) *GoogleSpeech {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = googleSpeechBaseURL
	}
	return &GoogleSpeech{client: resty.New().SetBaseURL(baseURL), apiKey: apiKey}
}

func (g *GoogleSpeech) Name() string { return "google-speech" }

type googleRecognizeRequest struct {
	Config struct {
		Encoding                   string   `json:"encoding"`
		SampleRateHertz            int      `json:"sampleRateHertz,omitempty"`
		LanguageCode               string   `json:"languageCode"`
		AlternativeLanguageCodes   []string `json:"alternativeLanguageCodes,omitempty"`
		EnableAutomaticPunctuation bool     `json:"enableAutomaticPunctuation"`
		SpeechContexts             []speechContext `json:"speechContexts,omitempty"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type speechContext struct {
	Phrases []string `json:"phrases"`
	Boost   float64  `json:"boost,omitempty"`
}

type googleRecognizeResponse struct {
	Results []struct {
		LanguageCode string `json:"languageCode"`
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio Audio, lang string) (Result, error) {
	var body googleRecognizeRequest
	body.Config.Encoding, body.Config.SampleRateHertz = googleEncoding(audio)
	body.Config.LanguageCode = bcp47(lang)
	for _, alt := range alternativeLanguages {
		if alt != body.Config.LanguageCode {
			body.Config.AlternativeLanguageCodes = append(body.Config.AlternativeLanguageCodes, alt)
		}
	}
	body.Config.EnableAutomaticPunctuation = true
	body.Config.SpeechContexts = []speechContext{{Phrases: emergencyPhrases, Boost: 20}}
	body.Audio.Content = base64.StdEncoding.EncodeToString(audio.Data)

	var out googleRecognizeResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(body).
		SetResult(&out).
		Post("/v1/speech:recognize")
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return Result{}, fmt.Errorf("google speech http %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	var parts []string
	for _, r := range out.Results {
		if len(r.Alternatives) > 0 {
			parts = append(parts, r.Alternatives[0].Transcript)
		}
	}
	res := Result{Text: strings.Join(parts, "\n"), Language: lang}
	if len(out.Results) > 0 {
		if out.Results[0].LanguageCode != "" {
			res.Language = out.Results[0].LanguageCode
		}
		if len(out.Results[0].Alternatives) > 0 {
			res.Confidence = out.Results[0].Alternatives[0].Confidence
		}
	}
	return res, nil
}

func googleEncoding(a Audio) (string, int) {
	if IsWAV(a) {
		return "LINEAR16", 16000
	}
	switch strings.ToLower(filepath.Ext(a.Filename)) {
	case ".webm":
		return "WEBM_OPUS", 48000
	case ".mp3":
		return "MP3", 48000
	case ".flac":
		return "FLAC", 0
	case ".ogg":
		return "OGG_OPUS", 48000
	}
	return "LINEAR16", 16000
}

func bcp47(lang string) string {
	switch lang {
	case "", "en":
		return "en-US"
	case "hi", "kn", "ta", "te", "ml", "mr", "bn":
		return lang + "-IN"
	}
	return lang
}
