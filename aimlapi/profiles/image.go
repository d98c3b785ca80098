package profiles

import "github.com/BaSui01/aimlflow/aimlapi/fields"

var genericImageFields = [][2]string{
	{"imageCount", "n"},
	{"size", "size"},
	{"responseFormat", "response_format"},
	{"quality", "quality"},
	{"style", "style"},
	{"background", "background"},
	{"negativePrompt", "negative_prompt"},
}

// GenericImage is the OpenAI-style images body every image model accepts.
func GenericImage(c Common) map[string]any {
	body := base(c)
	body["prompt"] = c.Prompt
	project(body, c.Options, genericImageFields)
	return body
}

// FluxImage sizes images with image_size and counts with num_images.
func FluxImage(c Common) map[string]any {
	body := base(c)
	body["prompt"] = c.Prompt
	project(body, c.Options, [][2]string{
		{"size", "image_size"},
		{"imageCount", "num_images"},
		{"seed", "seed"},
		{"guidanceScale", "guidance_scale"},
		{"outputFormat", "output_format"},
	})
	return body
}

// ImageProfiles returns the registry used for image generation.
func ImageProfiles() *Registry {
	return NewRegistry("generic", GenericImage).
		Register("flux", "flux/", FluxImage).
		Register("flux-pro", "flux-pro", FluxImage)
}

// EmbeddingBody builds an embeddings request.
func EmbeddingBody(c Common) map[string]any {
	body := base(c)
	body["input"] = c.Prompt
	fields.Set(body, "encoding_format", c.Options.Get("encodingFormat"))
	fields.Set(body, "dimensions", c.Options.Number("dimensions"))
	fields.Set(body, "user", c.Options.Get("user"))
	return body
}
