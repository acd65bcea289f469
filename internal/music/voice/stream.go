package voice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"regexp"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

var youtubeIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/|/shorts/)([A-Za-z0-9_-]{11})`)

// openPCM produces a raw s16le PCM stream for url. YouTube links go
// through the native client first and fall back to yt-dlp; anything else
// is handed to ffmpeg directly.
func openPCM(url string, volume int) (io.ReadCloser, func(), error) {
	var errs []string

	if id, ok := extractYouTubeID(url); ok {
		r, cleanup, err := openNative(id, volume)
		if err == nil {
			return r, cleanup, nil
		}
		errs = append(errs, fmt.Sprintf("native: %v", err))

		r, cleanup, err = openYTDLP(url, volume)
		if err == nil {
			return r, cleanup, nil
		}
		errs = append(errs, fmt.Sprintf("yt-dlp: %v", err))

		return nil, nil, fmt.Errorf("all streamers failed for %s: %s", url, strings.Join(errs, "; "))
	}

	return openDirect(url, volume)
}

func extractYouTubeID(url string) (string, bool) {
	if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
		return "", false
	}
	m := youtubeIDPattern.FindStringSubmatch(url)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// openNative resolves the audio stream URL with the kkdai client and
// decodes it through ffmpeg.
func openNative(videoID string, volume int) (io.ReadCloser, func(), error) {
	client := &yt.Client{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}

	video, err := client.GetVideo(videoID)
	if err != nil {
		return nil, nil, fmt.Errorf("get video: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, nil, errors.New("no audio formats found for video")
	}

	link, err := client.GetStreamURL(video, &formats[0])
	if err != nil {
		return nil, nil, fmt.Errorf("get stream url: %w", err)
	}

	return ffmpegPCM(link, volume)
}

// openYTDLP asks the yt-dlp binary for a bestaudio URL and decodes it
// through ffmpeg.
func openYTDLP(url string, volume int) (io.ReadCloser, func(), error) {
	out, err := exec.Command("yt-dlp", "-j", "-f", "bestaudio", url).Output()
	if err != nil {
		return nil, nil, fmt.Errorf("yt-dlp info: %w", err)
	}

	var info struct {
		URL     string `json:"url"`
		Formats []struct {
			URL string `json:"url"`
		} `json:"formats"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, nil, fmt.Errorf("yt-dlp json: %w", err)
	}

	link := strings.TrimSpace(info.URL)
	if link == "" && len(info.Formats) > 0 {
		link = strings.TrimSpace(info.Formats[0].URL)
	}
	if link == "" {
		return nil, nil, errors.New("empty URL returned from yt-dlp")
	}

	return ffmpegPCM(link, volume)
}

// openDirect pulls a plain stream URL straight through ffmpeg.
func openDirect(url string, volume int) (io.ReadCloser, func(), error) {
	return ffmpegPCM(url, volume)
}

func ffmpegPCM(link string, volume int) (io.ReadCloser, func(), error) {
	if volume < 0 {
		volume = 0
	} else if volume > 100 {
		volume = 100
	}

	cmd := exec.Command("ffmpeg",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", link,
		"-filter:a", fmt.Sprintf("volume=%.2f", float64(volume)/100),
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	cleanup := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}

	return reader, cleanup, nil
}
