package chat

import (
	"context"
	"errors"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/styleai/internal/audio"
	"github.com/fpang/styleai/internal/schema"
)

// GenerateSpeech reads text aloud and returns it as a WAV data URI.
//
// Speech is best effort: blank text returns an empty result without calling
// the model, and every failure is logged and also yields an empty result.
func (c *Client) GenerateSpeech(ctx context.Context, text string, opts ...CallOption) schema.SpeechResult {
	if strings.TrimSpace(text) == "" {
		return schema.SpeechResult{}
	}

	uri, err := c.speak(ctx, text, opts)
	if err != nil {
		log.Warn().Err(err).Int("text_length", len(text)).Msg("Speech generation failed, continuing without audio")
		return schema.SpeechResult{}
	}
	return schema.SpeechResult{Audio: uri}
}

func (c *Client) speak(ctx context.Context, text string, opts []CallOption) (string, error) {
	gen, err := c.generator(ctx, opts)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: SpeechVoice},
			},
		},
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: text}}}}

	start := time.Now()
	resp, err := gen.GenerateContent(ctx, c.speechModel, contents, config)
	recordCall(schema.OpSpeech, c.speechModel, start, resp, err)
	if err != nil {
		return "", err
	}

	pcm, format, err := speechPCM(resp)
	if err != nil {
		return "", err
	}
	log.Debug().
		Int("pcm_bytes", len(pcm)).
		Int("sample_rate", format.SampleRate).
		Dur("duration", time.Since(start)).
		Msg("Received speech from Gemini")
	return audio.WAVDataURI(pcm, format)
}

// speechPCM finds the first audio part of the response. The model returns
// raw PCM either inline or as a data: URI.
func speechPCM(resp *genai.GenerateContentResponse) ([]byte, audio.Format, error) {
	if resp == nil {
		return nil, audio.Format{}, schema.EmptyResponse(schema.OpSpeech)
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			switch {
			case part.InlineData != nil && len(part.InlineData.Data) > 0:
				return part.InlineData.Data, pcmFormat(part.InlineData.MIMEType), nil
			case part.FileData != nil && strings.HasPrefix(part.FileData.FileURI, "data:"):
				pcm, err := audio.PCMFromDataURI(part.FileData.FileURI)
				if err != nil {
					return nil, audio.Format{}, err
				}
				if len(pcm) == 0 {
					return nil, audio.Format{}, errors.New("speech payload is empty")
				}
				return pcm, pcmFormat(part.FileData.MIMEType), nil
			}
		}
	}
	return nil, audio.Format{}, schema.EmptyResponse(schema.OpSpeech)
}

// pcmFormat reads the sample rate from a MIME type such as
// "audio/L16;codec=pcm;rate=24000", falling back to audio.DefaultFormat.
func pcmFormat(mimeType string) audio.Format {
	f := audio.DefaultFormat
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return f
	}
	if rate, err := strconv.Atoi(params["rate"]); err == nil && rate > 0 {
		f.SampleRate = rate
	}
	return f
}
