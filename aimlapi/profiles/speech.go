package profiles

import (
	"encoding/json"

	"github.com/BaSui01/aimlflow/aimlapi/fields"
)

// speakers accepts a list, a single object, or a JSON string of either.
func speakers(v any) []any {
	if s, ok := v.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil
		}
		v = parsed
	}
	switch t := v.(type) {
	case []any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	case map[string]any:
		return []any{t}
	}
	return nil
}

func audioContainer(body map[string]any, opts fields.Bag) {
	container := opts.String("container")
	if container == "" {
		container = opts.String("audioFormat")
	}
	fields.Set(body, "container", container)
	fields.Set(body, "encoding", opts.Get("encoding"))
	fields.Set(body, "sample_rate", opts.Get("sampleRate"))
}

func voiceOptions(body map[string]any, opts fields.Bag) {
	fields.Set(body, "voice", opts.Get("voice"))
	fields.Set(body, "output_format", opts.Get("outputFormat"))
	for _, key := range []string{"subtitleEnable", "subtitle", "subtitle_enable", "enableSubtitles"} {
		if _, ok := opts[key]; ok && opts[key] != nil {
			body["subtitle_enable"] = opts.Bool(key)
			break
		}
	}
}

// MicrosoftSpeech sends a multi-speaker script.
func MicrosoftSpeech(c Common) map[string]any {
	body := base(c)
	script := c.Options.String("scriptOverride")
	if script == "" {
		script = c.Prompt
	}
	body["script"] = script
	if s := speakers(c.Options.Get("speakers")); len(s) > 0 {
		body["speakers"] = s
	}
	fields.Set(body, "seed", c.Options.Get("seed"))
	fields.Set(body, "cfg_scale", c.Options.Get("cfgScale"))
	audioContainer(body, c.Options)
	return body
}

// AuraSpeech sends plain text with container settings.
func AuraSpeech(c Common) map[string]any {
	body := base(c)
	body["text"] = c.Prompt
	audioContainer(body, c.Options)
	return body
}

// VoiceSpeech covers ElevenLabs and every other text-to-speech model.
func VoiceSpeech(c Common) map[string]any {
	body := AuraSpeech(c)
	voiceOptions(body, c.Options)
	return body
}

// SpeechProfiles returns the registry used for speech synthesis.
func SpeechProfiles() *Registry {
	return NewRegistry("generic", VoiceSpeech).
		Register("microsoft", "microsoft/", MicrosoftSpeech).
		Register("aura", "#g1_aura", AuraSpeech).
		Register("elevenlabs", "elevenlabs/", VoiceSpeech)
}
