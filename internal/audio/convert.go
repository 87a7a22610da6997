// Package audio fetches submitted recordings and normalizes them for the
// scoring service. Conversion shells out to ffmpeg, which must be installed
// on the host.
package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
)

// ffmpegBin is the converter binary looked up on PATH.
const ffmpegBin = "ffmpeg"

// Download fetches a voice file from url into a temporary file and returns
// its path. The caller is responsible for removing the file.
func Download(ctx context.Context, fileURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download voice file: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("voice download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "voice-*.oga")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save voice file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %v", err)
	}
	return tmp.Name(), nil
}

// ConvertToWAV transcodes src into a mono 16 kHz 16-bit PCM WAV temp file and
// returns its path. The caller is responsible for removing the file.
func ConvertToWAV(ctx context.Context, src string) (string, error) {
	tmp, err := os.CreateTemp("", "voice-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	dst := tmp.Name()
	tmp.Close()

	cmd := exec.CommandContext(ctx, ffmpegBin,
		"-y",
		"-i", src,
		"-ac", "1",
		"-ar", "16000",
		"-sample_fmt", "s16",
		dst,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("ffmpeg conversion failed: %v: %s", err, out)
	}
	return dst, nil
}
