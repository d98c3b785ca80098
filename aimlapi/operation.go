package aimlapi

import "strings"

// Operation identifies one AIMLAPI gateway operation.
type Operation string

const (
	OpChatCompletion      Operation = "chatCompletion"
	OpImageGeneration     Operation = "imageGeneration"
	OpAudioGeneration     Operation = "audioGeneration"
	OpVideoGeneration     Operation = "videoGeneration"
	OpSpeechSynthesis     Operation = "speechSynthesis"
	OpSpeechTranscription Operation = "speechTranscription"
	OpEmbeddingGeneration Operation = "embeddingGeneration"
)

// MediaType is the kind of artifact an operation produces.
type MediaType string

const (
	MediaAudio     MediaType = "audio"
	MediaVideo     MediaType = "video"
	MediaImage     MediaType = "image"
	MediaText      MediaType = "text"
	MediaEmbedding MediaType = "embedding"
)

// DefaultBaseURL is the gateway base used when none is configured.
const DefaultBaseURL = "https://api.aimlapi.com/v1"

// Title is sent as X-Title on every request.
const Title = "n8n AIMLAPI Node"

type operationInfo struct {
	label string
	media MediaType
}

var operations = map[Operation]operationInfo{
	OpChatCompletion:      {"Chat Completion", MediaText},
	OpImageGeneration:     {"Image Generation", MediaImage},
	OpAudioGeneration:     {"Audio Generation", MediaAudio},
	OpVideoGeneration:     {"Video Generation", MediaVideo},
	OpSpeechSynthesis:     {"Speech Synthesis", MediaAudio},
	OpSpeechTranscription: {"Speech Transcription", MediaText},
	OpEmbeddingGeneration: {"Embedding Generation", MediaEmbedding},
}

// Operations returns every known operation in display order.
func Operations() []Operation {
	return []Operation{
		OpChatCompletion,
		OpImageGeneration,
		OpAudioGeneration,
		OpVideoGeneration,
		OpSpeechSynthesis,
		OpSpeechTranscription,
		OpEmbeddingGeneration,
	}
}

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	_, ok := operations[op]
	return ok
}

// Label returns the human readable name of the operation.
func (op Operation) Label() string {
	if info, ok := operations[op]; ok {
		return info.label
	}
	return string(op)
}

// MediaType returns the media type the operation produces.
func (op Operation) MediaType() MediaType {
	return operations[op].media
}

// ParseOperation resolves an operation identifier case-insensitively.
func ParseOperation(s string) (Operation, bool) {
	s = strings.TrimSpace(s)
	for op := range operations {
		if strings.EqualFold(string(op), s) {
			return op, true
		}
	}
	return "", false
}
