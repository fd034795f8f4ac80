package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const tempPrefix = "lifeline-audio-"

// IsWAV sniffs the RIFF/WAVE header, falling back to the declared type.
func IsWAV(a Audio) bool {
	if len(a.Data) >= 12 {
		return string(a.Data[0:4]) == "RIFF" && string(a.Data[8:12]) == "WAVE"
	}
	mime := strings.ToLower(a.MIME)
	return strings.Contains(mime, "wav") || strings.EqualFold(filepath.Ext(a.Filename), ".wav")
}

// FFmpeg converts clips by shelling out to the ffmpeg binary.
type FFmpeg struct {
	Binary string
	TmpDir string
}

func NewFFmpeg(binary, tmpDir string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &FFmpeg{Binary: binary, TmpDir: tmpDir}
}

// ToWAV runs: ffmpeg -y -i in -ac 1 -ar 16000 -acodec pcm_s16le -f wav out
func (f *FFmpeg) ToWAV(ctx context.Context, audio Audio) (Audio, error) {
	id := uuid.NewString()
	ext := filepath.Ext(audio.Filename)
	if ext == "" {
		ext = ".bin"
	}
	in := filepath.Join(f.TmpDir, tempPrefix+id+ext)
	out := filepath.Join(f.TmpDir, tempPrefix+id+".wav")
	defer os.Remove(in)
	defer os.Remove(out)

	if err := os.WriteFile(in, audio.Data, 0o600); err != nil {
		return Audio{}, fmt.Errorf("ffmpeg: write input: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Binary,
		"-y", "-i", in,
		"-ac", "1", "-ar", "16000",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		out,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Audio{}, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return Audio{}, fmt.Errorf("ffmpeg: read output: %w", err)
	}
	name := strings.TrimSuffix(audio.Filename, filepath.Ext(audio.Filename)) + ".wav"
	return Audio{Data: data, Filename: name, MIME: "audio/wav"}, nil
}

// PurgeStale removes conversion leftovers older than maxAge, e.g. after a
// crash mid-conversion. It returns the number of files removed.
func PurgeStale(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(dir, e.Name())) == nil {
			removed++
		}
	}
	return removed, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
