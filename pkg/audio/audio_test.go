package audio

import (
	"math"
	"testing"
)

// sine builds a test tone of the given amplitude and duration.
func sine(freq, amplitude, seconds float64, rate int) Buffer {
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return FromSamples(samples, rate)
}

func TestSilenceDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		rate    int
		wantN   int
	}{
		{1.0, 16000, 16000},
		{0.5, 16000, 8000},
		{0.25, 8000, 2000},
		{0, 16000, 0},
		{-1, 16000, 0},
	}
	for _, tt := range tests {
		buf := Silence(tt.seconds, tt.rate)
		if got := buf.NumSamples(); got != tt.wantN {
			t.Errorf("Silence(%v, %d): got %d samples, want %d", tt.seconds, tt.rate, got, tt.wantN)
		}
		if buf.RMS() != 0 {
			t.Errorf("Silence(%v, %d): non-zero RMS %v", tt.seconds, tt.rate, buf.RMS())
		}
	}
}

func TestSliceClamping(t *testing.T) {
	buf := Silence(2.0, 16000)

	tests := []struct {
		name       string
		start, end float64
		wantSec    float64
	}{
		{"inside", 0.5, 1.5, 1.0},
		{"past end", 1.5, 5.0, 0.5},
		{"before start", -1.0, 0.5, 0.5},
		{"inverted", 1.5, 0.5, 0},
		{"empty", 1.0, 1.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buf.Slice(tt.start, tt.end).Seconds()
			if math.Abs(got-tt.wantSec) > 1e-9 {
				t.Errorf("Slice(%v, %v) = %vs, want %vs", tt.start, tt.end, got, tt.wantSec)
			}
		})
	}
}

func TestAppendConcatenates(t *testing.T) {
	a := Silence(1.0, 16000)
	b := sine(440, 0.5, 0.5, 16000)

	out := a.Append(b)
	if got, want := out.Seconds(), 1.5; math.Abs(got-want) > 1e-6 {
		t.Fatalf("appended duration = %v, want %v", got, want)
	}
	// The silent prefix must stay silent and the tone must survive.
	if rms := out.Slice(0, 1.0).RMS(); rms != 0 {
		t.Errorf("silent prefix has RMS %v", rms)
	}
	if rms := out.Slice(1.0, 1.5).RMS(); rms < 0.1 {
		t.Errorf("tone suffix has RMS %v, expected audible signal", rms)
	}
}

func TestRMSOfFullScaleSine(t *testing.T) {
	buf := sine(440, 1.0, 1.0, 16000)
	want := 1 / math.Sqrt2
	if got := buf.RMS(); math.Abs(got-want) > 0.01 {
		t.Errorf("RMS = %v, want ~%v", got, want)
	}
}

func TestDBFS(t *testing.T) {
	if got := Silence(1.0, 16000).DBFS(); got != SilenceFloorDBFS {
		t.Errorf("silent DBFS = %v, want %v", got, SilenceFloorDBFS)
	}

	// A half-amplitude sine sits ~6 dB below a full-scale one.
	full := sine(440, 1.0, 1.0, 16000).DBFS()
	half := sine(440, 0.5, 1.0, 16000).DBFS()
	if diff := full - half; math.Abs(diff-6.02) > 0.1 {
		t.Errorf("full-half level difference = %v dB, want ~6.02", diff)
	}
}

func TestApplyGain(t *testing.T) {
	buf := sine(440, 0.25, 0.5, 16000)
	before := buf.DBFS()

	boosted := buf.ApplyGain(6)
	if diff := boosted.DBFS() - before; math.Abs(diff-6) > 0.1 {
		t.Errorf("gain shifted level by %v dB, want 6", diff)
	}

	// Boosting far past full scale must clamp, not wrap.
	clipped := sine(440, 0.9, 0.5, 16000).ApplyGain(40)
	for i := 0; i < clipped.NumSamples(); i++ {
		s := clipped.Sample(i)
		if s > 32767 || s < -32768 {
			t.Fatalf("sample %d out of range: %d", i, s)
		}
	}
	if clipped.RMS() > 1.0 {
		t.Errorf("clipped RMS %v exceeds full scale", clipped.RMS())
	}
}

func TestNormalizeTo(t *testing.T) {
	quiet := sine(440, 0.01, 0.5, 16000)
	normalized := quiet.NormalizeTo(-20)
	if got := normalized.DBFS(); math.Abs(got-(-20)) > 0.5 {
		t.Errorf("normalized level = %v dBFS, want ~-20", got)
	}

	// Already-loud audio is untouched.
	loud := sine(440, 0.8, 0.5, 16000)
	if got := loud.NormalizeTo(-30); got.DBFS() != loud.DBFS() {
		t.Errorf("loud buffer changed: %v -> %v dBFS", loud.DBFS(), got.DBFS())
	}

	// Silence stays silence, never amplified noise.
	silent := Silence(0.5, 16000)
	if got := silent.NormalizeTo(-30); got.RMS() != 0 {
		t.Errorf("silence gained energy: RMS %v", got.RMS())
	}
}

func TestWAVRoundTrip(t *testing.T) {
	orig := sine(440, 0.5, 0.25, 16000)

	parsed, err := ParseWAV(EncodeWAV(orig))
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if parsed.SampleRate != orig.SampleRate {
		t.Errorf("sample rate = %d, want %d", parsed.SampleRate, orig.SampleRate)
	}
	if parsed.NumSamples() != orig.NumSamples() {
		t.Errorf("samples = %d, want %d", parsed.NumSamples(), orig.NumSamples())
	}
	for i := 0; i < parsed.NumSamples(); i++ {
		if parsed.Sample(i) != orig.Sample(i) {
			t.Fatalf("sample %d = %d, want %d", i, parsed.Sample(i), orig.Sample(i))
		}
	}
}

func TestParseWAVRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", []byte("RIFF")},
		{"not riff", []byte("OggS\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseWAV(tt.data); err == nil {
				t.Error("expected parse error, got nil")
			}
		})
	}
}

func TestDownmixToMono(t *testing.T) {
	// Stereo: left holds the signal, right holds its negation. The average
	// cancels to (near) zero.
	stereo := make([]byte, 8)
	stereo[0], stereo[1] = 0xE8, 0x03 // L = 1000
	stereo[2], stereo[3] = 0x18, 0xFC // R = -1000
	stereo[4], stereo[5] = 0xD0, 0x07 // L = 2000
	stereo[6], stereo[7] = 0xD0, 0x07 // R = 2000

	mono := DownmixToMono(stereo, 2)
	buf := Buffer{Data: mono, SampleRate: 16000}
	if buf.NumSamples() != 2 {
		t.Fatalf("downmix produced %d samples, want 2", buf.NumSamples())
	}
	if got := buf.Sample(0); got != 0 {
		t.Errorf("cancelling pair averaged to %d, want 0", got)
	}
	if got := buf.Sample(1); got != 2000 {
		t.Errorf("equal pair averaged to %d, want 2000", got)
	}
}
