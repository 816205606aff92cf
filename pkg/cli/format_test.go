package cli

import "testing"

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{0, "0ms"},
		{0.001, "1ms"},
		{0.25, "250ms"},
		{1, "1.0s"},
		{1.5, "1.5s"},
		{59, "59.0s"},
		{60, "1m0.0s"},
		{90, "1m30.0s"},
		{125.5, "2m5.5s"},
		{3600, "60m0.0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatSeconds(tt.secs); got != tt.want {
				t.Errorf("FormatSeconds(%v) = %q, want %q", tt.secs, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatPeak(t *testing.T) {
	tests := []struct {
		peak float64
		want string
	}{
		{0, "-inf dB"},
		{1, "0.0 dB"},
		{0.5, "-6.0 dB"},
		{0.9, "-0.9 dB"},
	}
	for _, tt := range tests {
		if got := FormatPeak(tt.peak); got != tt.want {
			t.Errorf("FormatPeak(%v) = %q, want %q", tt.peak, got, tt.want)
		}
	}
}

func TestWAVSize(t *testing.T) {
	// Two seconds of 44.1 kHz stereo.
	if got := WAVSize(88200, 2); got != 44+88200*4 {
		t.Fatalf("WAVSize = %d", got)
	}
	if got := WAVSize(0, 2); got != 44 {
		t.Fatalf("empty WAVSize = %d", got)
	}
}
