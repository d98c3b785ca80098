package operations

import (
	"strings"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/types"
)

// Extract modes per operation. The first entry is the default.
var extractModes = map[aimlapi.Operation][]string{
	aimlapi.OpChatCompletion:      {"text", "messages", "choices", "raw"},
	aimlapi.OpImageGeneration:     {"firstUrl", "allUrls", "firstBase64", "allBase64", "images", "raw"},
	aimlapi.OpAudioGeneration:     {"firstUrl", "allUrls", "firstBase64", "allBase64", "raw"},
	aimlapi.OpVideoGeneration:     {"firstUrl", "allUrls", "raw"},
	aimlapi.OpSpeechSynthesis:     {"audioUrl", "audioBase64", "raw"},
	aimlapi.OpSpeechTranscription: {"text", "segments", "raw"},
	aimlapi.OpEmbeddingGeneration: {"vector", "vectors", "raw"},
}

// ExtractModes lists the output shapes op supports.
func ExtractModes(op aimlapi.Operation) []string {
	return append([]string(nil), extractModes[op]...)
}

// extractMode reads the item's "extract" parameter, matched
// case-insensitively against the modes of op.
func extractMode(op aimlapi.Operation, ec *ExecContext) (string, error) {
	modes := extractModes[op]
	want := ec.params().String("extract")
	if want == "" {
		return modes[0], nil
	}
	for _, m := range modes {
		if strings.EqualFold(m, want) {
			return m, nil
		}
	}
	return "", types.NewValidationError("extract mode %q is not supported by %s (want one of %s)",
		want, op, strings.Join(modes, ", "))
}
