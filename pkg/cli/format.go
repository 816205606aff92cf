package cli

import (
	"fmt"
	"math"
)

// FormatSeconds formats a duration in seconds to a human readable string.
func FormatSeconds(secs float64) string {
	if secs < 1 {
		return fmt.Sprintf("%dms", int(math.Round(secs*1000)))
	}
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	secs -= float64(mins * 60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}

// FormatBytes formats bytes to human readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatPeak formats a linear peak level in dBFS. Silence is "-inf dB".
func FormatPeak(peak float64) string {
	if peak <= 0 {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", 20*math.Log10(peak))
}

// WAVSize returns the size in bytes of a 16-bit PCM WAV file with the given
// frame count and channels, header included.
func WAVSize(frames, channels int) int64 {
	return 44 + int64(frames)*int64(channels)*2
}
