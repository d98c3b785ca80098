package aimlapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperations_MediaTypes(t *testing.T) {
	assert.Len(t, Operations(), 7)
	assert.Equal(t, MediaText, OpChatCompletion.MediaType())
	assert.Equal(t, MediaVideo, OpVideoGeneration.MediaType())
	assert.Equal(t, MediaAudio, OpSpeechSynthesis.MediaType())
	assert.Equal(t, MediaEmbedding, OpEmbeddingGeneration.MediaType())
	for _, op := range Operations() {
		assert.True(t, op.Valid(), op)
		assert.NotEmpty(t, op.Label())
	}
}

func TestParseOperation(t *testing.T) {
	op, ok := ParseOperation(" videogeneration ")
	assert.True(t, ok)
	assert.Equal(t, OpVideoGeneration, op)

	_, ok = ParseOperation("teleport")
	assert.False(t, ok)
	assert.False(t, Operation("teleport").Valid())
	assert.Equal(t, "teleport", Operation("teleport").Label())
}
