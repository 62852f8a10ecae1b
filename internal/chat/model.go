package chat

import "os"

// Gemini model IDs used by the flows.
//
// | Model                        | API Model ID                  | Used by                  |
// |------------------------------|-------------------------------|--------------------------|
// | Gemini 2.5 Flash             | gemini-2.5-flash              | all structured flows     |
// | Gemini 2.5 Flash Preview TTS | gemini-2.5-flash-preview-tts  | generate-speech          |
const (
	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25Pro is stable, for high-reasoning tasks.
	ModelGemini25Pro = "gemini-2.5-pro"

	// ModelGemini25FlashTTS renders text as 24 kHz mono PCM.
	ModelGemini25FlashTTS = "gemini-2.5-flash-preview-tts"
)

// DefaultModelName is the model for the structured flows.
// Can be overridden via the GEMINI_MODEL environment variable.
const DefaultModelName = ModelGemini25Flash

// SpeechVoice is the prebuilt voice used for speech synthesis.
const SpeechVoice = "Algenib"

// thinkingBudget caps reasoning tokens for the structured flows.
const thinkingBudget int32 = 1024

// GetModelName returns GEMINI_MODEL if set, otherwise DefaultModelName.
func GetModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}
