package profiles

import (
	"strconv"

	"github.com/BaSui01/aimlflow/aimlapi/fields"
)

var genericVideoFields = [][2]string{
	{"mode", "mode"},
	{"duration", "duration"},
	{"aspectRatio", "aspect_ratio"},
	{"cfgScale", "cfg_scale"},
	{"seed", "seed"},
	{"negativePrompt", "negative_prompt"},
	{"promptStrength", "prompt_strength"},
	{"referenceImageUrl", "reference_image_url"},
	{"referenceVideoUrl", "reference_video_url"},
	{"musicUrl", "music_url"},
}

// GenericVideo passes every known option through under its snake_case name.
func GenericVideo(c Common) map[string]any {
	body := base(c)
	fields.Set(body, "prompt", c.Prompt)
	project(body, c.Options, genericVideoFields)
	return body
}

var runwayRatios = map[string]string{
	"16:9": "1280:720",
	"9:16": "720:1280",
	"1:1":  "960:960",
	"4:3":  "1104:832",
	"3:4":  "832:1104",
}

// RunwayVideo uses pixel ratios and only accepts 5 or 10 second clips.
func RunwayVideo(c Common) map[string]any {
	body := base(c)
	fields.Set(body, "prompt", c.Prompt)
	if ar := c.Options.String("aspectRatio"); ar != "" {
		if px, ok := runwayRatios[ar]; ok {
			ar = px
		}
		body["ratio"] = ar
	}
	fields.Set(body, "image_url", c.Options.Get("referenceImageUrl"))
	fields.Set(body, "seed", c.Options.Get("seed"))
	// runway accepts 5 or 10 seconds; snap to the nearer one
	duration := 5
	if d, ok := c.Options.Int("duration"); ok && d >= 8 {
		duration = 10
	}
	body["duration"] = duration
	return body
}

// KlingVideo sends duration as a string and image-to-video as image_url.
func KlingVideo(c Common) map[string]any {
	body := base(c)
	fields.Set(body, "prompt", c.Prompt)
	project(body, c.Options, [][2]string{
		{"aspectRatio", "aspect_ratio"},
		{"cfgScale", "cfg_scale"},
		{"negativePrompt", "negative_prompt"},
		{"referenceImageUrl", "image_url"},
	})
	if d, ok := c.Options.Int("duration"); ok {
		if d > 5 {
			d = 10
		} else {
			d = 5
		}
		body["duration"] = strconv.Itoa(d)
	}
	return body
}

// VeoVideo defaults to eight second clips and can request an audio track.
func VeoVideo(c Common) map[string]any {
	body := base(c)
	fields.Set(body, "prompt", c.Prompt)
	project(body, c.Options, [][2]string{
		{"aspectRatio", "aspect_ratio"},
		{"negativePrompt", "negative_prompt"},
		{"referenceImageUrl", "image_url"},
		{"seed", "seed"},
	})
	duration := 8
	if d, ok := c.Options.Int("duration"); ok && d > 0 {
		duration = d
	}
	body["duration"] = duration
	if c.Options.Has("generateAudio") {
		body["generate_audio"] = c.Options.Bool("generateAudio")
	}
	return body
}

// MinimaxVideo takes the first frame as first_frame_image.
func MinimaxVideo(c Common) map[string]any {
	body := base(c)
	fields.Set(body, "prompt", c.Prompt)
	fields.Set(body, "first_frame_image", c.Options.Get("referenceImageUrl"))
	if c.Options.Has("promptOptimizer") {
		body["prompt_optimizer"] = c.Options.Bool("promptOptimizer")
	}
	return body
}

// VideoProfiles returns the registry used for video generation.
func VideoProfiles() *Registry {
	return NewRegistry("generic", GenericVideo).
		Register("runway", "runway/", RunwayVideo).
		Register("runway", "runway-", RunwayVideo).
		Register("kling", "kling-video/", KlingVideo).
		Register("veo", "google/veo", VeoVideo).
		Register("veo", "veo", VeoVideo).
		Register("minimax", "minimax/", MinimaxVideo)
}
