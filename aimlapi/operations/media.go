package operations

import (
	"context"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/extract"
	"github.com/BaSui01/aimlflow/aimlapi/generation"
	"github.com/BaSui01/aimlflow/aimlapi/profiles"
	"github.com/BaSui01/aimlflow/aimlapi/request"
)

const (
	imagePath = "/v1/images/generations"
	audioPath = "/v2/generate/audio"
	videoPath = "/v2/video/generations"
	ttsPath   = "/v1/tts"
)

var (
	imageProfiles  = profiles.ImageProfiles()
	audioProfiles  = profiles.AudioProfiles()
	videoProfiles  = profiles.VideoProfiles()
	speechProfiles = profiles.SpeechProfiles()
)

func (ec *ExecContext) common(promptKey string) profiles.Common {
	return profiles.Common{
		Model:   ec.Model,
		Prompt:  ec.params().String(promptKey),
		Options: ec.options(),
	}
}

// mediaOutput shapes artifact lists for the url/base64 extract modes.
func mediaOutput(mode string, res *generation.Result) Output {
	switch mode {
	case "firstUrl":
		return Output{"url": extract.First(extract.URLs(res.Artifacts))}
	case "allUrls":
		return Output{"urls": nonNil(extract.URLs(res.Artifacts))}
	case "firstBase64":
		return Output{"base64": extract.First(extract.Base64s(res.Artifacts))}
	case "allBase64":
		return Output{"base64": nonNil(extract.Base64s(res.Artifacts))}
	default:
		return Output{"result": res.Original.Value()}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ImageResult is one entry of the "images" extract mode.
type ImageResult struct {
	Index         int    `json:"index"`
	URL           string `json:"url,omitempty"`
	Base64        string `json:"base64,omitempty"`
	RevisedPrompt string `json:"revisedPrompt,omitempty"`
}

// ExecuteImageGeneration generates images from a prompt.
func ExecuteImageGeneration(ctx context.Context, ec *ExecContext) (Output, error) {
	mode, err := extractMode(aimlapi.OpImageGeneration, ec)
	if err != nil {
		return nil, err
	}
	body := imageProfiles.Build(ec.common("prompt"))
	res, err := ec.submit(ctx, imagePath, aimlapi.MediaImage, request.WithBody(body))
	if err != nil {
		return nil, err
	}

	if mode == "images" {
		images := make([]ImageResult, 0, len(res.Artifacts))
		for i, a := range res.Artifacts {
			images = append(images, ImageResult{Index: i, URL: a.URL, Base64: a.Base64, RevisedPrompt: a.RevisedPrompt})
		}
		return Output{"images": images}, nil
	}
	return mediaOutput(mode, res), nil
}

// ExecuteAudioGeneration generates music or sound from a prompt.
func ExecuteAudioGeneration(ctx context.Context, ec *ExecContext) (Output, error) {
	mode, err := extractMode(aimlapi.OpAudioGeneration, ec)
	if err != nil {
		return nil, err
	}
	body := audioProfiles.Build(ec.common("prompt"))
	res, err := ec.submit(ctx, audioPath, aimlapi.MediaAudio, request.WithBody(body))
	if err != nil {
		return nil, err
	}
	return mediaOutput(mode, res), nil
}

// ExecuteVideoGeneration generates a video from a prompt and optional
// reference media.
func ExecuteVideoGeneration(ctx context.Context, ec *ExecContext) (Output, error) {
	mode, err := extractMode(aimlapi.OpVideoGeneration, ec)
	if err != nil {
		return nil, err
	}
	body := videoProfiles.Build(ec.common("prompt"))
	res, err := ec.submit(ctx, videoPath, aimlapi.MediaVideo, request.WithBody(body))
	if err != nil {
		return nil, err
	}
	return mediaOutput(mode, res), nil
}

// ExecuteSpeechSynthesis converts text to speech.
func ExecuteSpeechSynthesis(ctx context.Context, ec *ExecContext) (Output, error) {
	mode, err := extractMode(aimlapi.OpSpeechSynthesis, ec)
	if err != nil {
		return nil, err
	}
	body := speechProfiles.Build(ec.common("input"))
	res, err := ec.submit(ctx, ttsPath, aimlapi.MediaAudio, request.WithBody(body))
	if err != nil {
		return nil, err
	}

	switch mode {
	case "audioUrl":
		return Output{"url": extract.First(extract.URLs(res.Artifacts))}, nil
	case "audioBase64":
		return Output{"base64": extract.First(extract.Base64s(res.Artifacts))}, nil
	default:
		return Output{"result": res.Original.Value()}, nil
	}
}
