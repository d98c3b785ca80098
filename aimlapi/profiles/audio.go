package profiles

import "github.com/BaSui01/aimlflow/aimlapi/fields"

var genericAudioFields = [][2]string{
	{"mode", "mode"},
	{"duration", "duration"},
	{"audioFormat", "audio_format"},
	{"cfgScale", "cfg_scale"},
	{"seed", "seed"},
	{"negativePrompt", "negative_prompt"},
	{"instrument", "instrument"},
	{"referenceAudioUrl", "reference_audio_url"},
	{"promptStrength", "prompt_strength"},
}

// GenericAudio passes every known option through under its snake_case name.
func GenericAudio(c Common) map[string]any {
	body := base(c)
	fields.Set(body, "prompt", c.Prompt)
	project(body, c.Options, genericAudioFields)
	return body
}

// MinimaxMusic takes lyrics alongside the style prompt.
func MinimaxMusic(c Common) map[string]any {
	body := base(c)
	fields.Set(body, "prompt", c.Prompt)
	project(body, c.Options, [][2]string{
		{"lyrics", "lyrics"},
		{"referenceAudioUrl", "reference_audio_url"},
		{"audioFormat", "audio_format"},
	})
	return body
}

// ElevenLabsMusic expresses duration in milliseconds.
func ElevenLabsMusic(c Common) map[string]any {
	body := base(c)
	fields.Set(body, "prompt", c.Prompt)
	if d, ok := c.Options.Float("duration"); ok && d > 0 {
		body["music_length_ms"] = int(d * 1000)
	}
	fields.Set(body, "output_format", c.Options.Get("audioFormat"))
	return body
}

// AudioProfiles returns the registry used for audio generation.
func AudioProfiles() *Registry {
	return NewRegistry("generic", GenericAudio).
		Register("minimax", "minimax/", MinimaxMusic).
		Register("elevenlabs", "elevenlabs/", ElevenLabsMusic)
}
