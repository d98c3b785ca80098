package extract

import "github.com/BaSui01/aimlflow/aimlapi"

// mediaFields describes how one media type shows up in a payload.
type mediaFields struct {
	// url and base64 are direct field synonyms checked on every object.
	url    []string
	base64 []string
	// anchors are child fields recursed into before anything else.
	anchors []string
}

var mediaTables = map[aimlapi.MediaType]mediaFields{
	aimlapi.MediaAudio: {
		url:     []string{"url", "audio_url", "audioUrl"},
		base64:  []string{"b64_json", "base64", "audio_base64", "audioBase64", "data", "bytes", "audio"},
		anchors: []string{"audio_file", "audio_files", "audio", "tracks", "files", "data"},
	},
	aimlapi.MediaVideo: {
		url:     []string{"url", "video_url", "videoUrl"},
		base64:  []string{"b64_json", "base64", "video_base64"},
		anchors: []string{"video", "videos", "assets", "output", "data"},
	},
	aimlapi.MediaImage: {
		url:     []string{"url", "image_url", "imageUrl"},
		base64:  []string{"b64_json", "base64", "image_base64"},
		anchors: []string{"data", "images", "output", "image"},
	},
}

var (
	textFields           = []string{"text", "content", "value", "output_text"}
	textCollections      = []string{"content", "parts", "messages"}
	revisedPromptFields  = []string{"revised_prompt", "revisedPrompt"}
	transcriptPaths      = []string{"text", "result.text", "results.channels.0.alternatives.0.transcript", "transcript"}
	segmentPaths         = []string{"segments", "result.segments", "results.utterances", "words"}
	responsesOutputPaths = []string{"output_text", "output"}
)
