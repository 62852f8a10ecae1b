// Package audio wraps raw linear PCM returned by the speech model in a WAV
// container and exposes it as a data URI.
package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// WAVDataURIPrefix marks a base64 WAV payload.
const WAVDataURIPrefix = "data:audio/wav;base64,"

// headerSize is the size of the canonical RIFF/WAVE header written by EncodeWAV.
const headerSize = 44

// Format describes interleaved linear PCM samples.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// DefaultFormat matches the speech model's output: mono, 24 kHz, 16-bit.
var DefaultFormat = Format{Channels: 1, SampleRate: 24000, BitsPerSample: 16}

func (f Format) validate() error {
	if f.Channels <= 0 || f.Channels > 0xFFFF {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.BitsPerSample <= 0 || f.BitsPerSample%8 != 0 {
		return fmt.Errorf("invalid bit depth %d", f.BitsPerSample)
	}
	return nil
}

func (f Format) blockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// EncodeWAV returns a WAV file: the RIFF header followed by pcm, unmodified.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(pcm))

	le := binary.LittleEndian
	buf.WriteString("RIFF")
	binary.Write(&buf, le, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, le, uint32(16)) // fmt chunk size
	binary.Write(&buf, le, uint16(1))  // PCM
	binary.Write(&buf, le, uint16(f.Channels))
	binary.Write(&buf, le, uint32(f.SampleRate))
	binary.Write(&buf, le, uint32(f.SampleRate*f.blockAlign()))
	binary.Write(&buf, le, uint16(f.blockAlign()))
	binary.Write(&buf, le, uint16(f.BitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, le, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// WAVDataURI encodes pcm as a WAV file and returns it as a base64 data URI.
func WAVDataURI(pcm []byte, f Format) (string, error) {
	wav, err := EncodeWAV(pcm, f)
	if err != nil {
		return "", err
	}
	return WAVDataURIPrefix + base64.StdEncoding.EncodeToString(wav), nil
}

// PCMFromDataURI decodes the base64 payload after the first comma of a
// media data URI such as "data:audio/pcm;base64,...".
func PCMFromDataURI(uri string) ([]byte, error) {
	_, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, fmt.Errorf("media URI has no payload")
	}
	pcm, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode media payload: %w", err)
	}
	return pcm, nil
}
