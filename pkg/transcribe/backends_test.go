package transcribe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepgramBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/listen", r.URL.Path)
		assert.Equal(t, "Token dg-key", r.Header.Get("Authorization"))
		assert.Equal(t, "audio/webm", r.Header.Get("Content-Type"))
		assert.Equal(t, "nova-2", r.URL.Query().Get("model"))
		assert.Equal(t, "hi", r.URL.Query().Get("language"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, webm.Data, body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"results":{"channels":[{"detected_language":"hi","alternatives":[{"transcript":"madad karo","confidence":0.93}]}]}}`)
	}))
	defer srv.Close()

	d := NewDeepgram("dg-key", "", srv.URL)
	require.NotNil(t, d)
	res, err := d.Transcribe(context.Background(), webm, "hi")
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "madad karo", Language: "hi", Confidence: 0.93}, res)
}

func TestDeepgramHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"err_msg":"bad key"}`)
	}))
	defer srv.Close()

	_, err := NewDeepgram("k", "", srv.URL).Transcribe(context.Background(), webm, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGoogleSpeechBackend(t *testing.T) {
	wav := Audio{Data: []byte("RIFF\x00\x00\x00\x00WAVEdata"), Filename: "a.wav"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speech:recognize", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))

		var req googleRecognizeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "LINEAR16", req.Config.Encoding)
		assert.Equal(t, 16000, req.Config.SampleRateHertz)
		assert.Equal(t, "kn-IN", req.Config.LanguageCode)
		assert.NotContains(t, req.Config.AlternativeLanguageCodes, "kn-IN")
		assert.Equal(t, base64.StdEncoding.EncodeToString(wav.Data), req.Audio.Content)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"results":[{"languageCode":"kn-in","alternatives":[{"transcript":"sahaya","confidence":0.8}]},{"alternatives":[{"transcript":"beku"}]}]}`)
	}))
	defer srv.Close()

	res, err := NewGoogleSpeech("g-key", srv.URL).Transcribe(context.Background(), wav, "kn")
	require.NoError(t, err)
	assert.Equal(t, "sahaya\nbeku", res.Text)
	assert.Equal(t, "kn-in", res.Language)
	assert.Equal(t, 0.8, res.Confidence)
}

func TestWhisperBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "hi", r.FormValue("language"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"task":"transcribe","language":"hindi","text":"mujhe madad chahiye","segments":[{"avg_logprob":0}]}`)
	}))
	defer srv.Close()

	wh := NewWhisper("sk-test", srv.URL, "")
	require.NotNil(t, wh)
	res, err := wh.Transcribe(context.Background(), webm, "hi")
	require.NoError(t, err)
	assert.Equal(t, "mujhe madad chahiye", res.Text)
	assert.Equal(t, "hindi", res.Language)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
}

func TestUnconfiguredBackendsAreNil(t *testing.T) {
	assert.Nil(t, NewWhisper("", "", ""))
	assert.Nil(t, NewDeepgram("", "", ""))
	assert.Nil(t, NewGoogleSpeech("", ""))
}

func TestIsWAV(t *testing.T) {
	assert.True(t, IsWAV(Audio{Data: []byte("RIFF1234WAVEfmt ")}))
	assert.False(t, IsWAV(webm))
	assert.True(t, IsWAV(Audio{Filename: "x.WAV"}))
	assert.True(t, IsWAV(Audio{MIME: "audio/x-wav"}))
}

func TestPurgeStale(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, tempPrefix+"old.webm")
	fresh := filepath.Join(dir, tempPrefix+"fresh.wav")
	other := filepath.Join(dir, "keep.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(other, past, past))

	n, err := PurgeStale(dir, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}
