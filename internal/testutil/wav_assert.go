package testutil

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/example/go-kokoro-tts/internal/audio"
)

// wavInfo is the subset of RIFF metadata the assertions inspect.
type wavInfo struct {
	pcmFormat  uint16
	channels   uint16
	sampleRate uint32
	bitDepth   uint16
	dataBytes  uint32
}

func (w wavInfo) samples() int { return int(w.dataBytes) / 2 }

func (w wavInfo) seconds() float64 {
	return float64(w.samples()) / float64(w.sampleRate)
}

// parseWAV reads the RIFF/fmt headers and locates the data chunk.
func parseWAV(data []byte) (wavInfo, error) {
	if len(data) < 44 {
		return wavInfo{}, fmt.Errorf("%d bytes is too short for a WAV header", len(data))
	}
	for _, m := range []struct {
		off    int
		marker string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}} {
		if got := string(data[m.off : m.off+4]); got != m.marker {
			return wavInfo{}, fmt.Errorf("marker %q missing at offset %d (got %q)", m.marker, m.off, got)
		}
	}

	info := wavInfo{
		pcmFormat:  binary.LittleEndian.Uint16(data[20:22]),
		channels:   binary.LittleEndian.Uint16(data[22:24]),
		sampleRate: binary.LittleEndian.Uint32(data[24:28]),
		bitDepth:   binary.LittleEndian.Uint16(data[34:36]),
	}

	// Walk the chunk list; encoders may insert LIST or fact chunks
	// ahead of data.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		if id == "data" {
			info.dataBytes = size
			return info, nil
		}
		off += 8 + int(size)
		if size%2 != 0 {
			off++ // chunks are word-aligned
		}
	}
	return wavInfo{}, fmt.Errorf("no data chunk found")
}

// AssertValidWAV fails the test unless data is a WAV file in the fixed
// service output format: PCM, mono, 16-bit, audio.SampleRate, with at
// least one sample in the data chunk.
func AssertValidWAV(tb testing.TB, data []byte) {
	tb.Helper()

	info, err := parseWAV(data)
	if err != nil {
		tb.Fatalf("malformed WAV: %v", err)
	}

	if info.pcmFormat != 1 {
		tb.Fatalf("audio format = %d, want PCM (1)", info.pcmFormat)
	}
	if info.channels != 1 {
		tb.Fatalf("channels = %d, want mono", info.channels)
	}
	if info.sampleRate != audio.SampleRate {
		tb.Fatalf("sample rate = %d, want %d", info.sampleRate, audio.SampleRate)
	}
	if info.bitDepth != audio.BitDepth {
		tb.Fatalf("bit depth = %d, want %d", info.bitDepth, audio.BitDepth)
	}
	if info.samples() == 0 {
		tb.Fatal("data chunk holds no samples")
	}
}

// AssertWAVDurationApprox fails the test unless the audio duration in
// seconds falls within [minSec, maxSec].
func AssertWAVDurationApprox(tb testing.TB, data []byte, minSec, maxSec float64) {
	tb.Helper()

	info, err := parseWAV(data)
	if err != nil {
		tb.Fatalf("malformed WAV: %v", err)
	}
	if sec := info.seconds(); sec < minSec || sec > maxSec {
		tb.Fatalf("duration %.3fs outside [%.3fs, %.3fs]", sec, minSec, maxSec)
	}
}
