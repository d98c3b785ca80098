package operations

import (
	"context"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/extract"
	"github.com/BaSui01/aimlflow/aimlapi/profiles"
	"github.com/BaSui01/aimlflow/aimlapi/request"
)

const embeddingsPath = "/v1/embeddings"

// ExecuteEmbeddingGeneration requests embedding vectors for the input text.
func ExecuteEmbeddingGeneration(ctx context.Context, ec *ExecContext) (Output, error) {
	mode, err := extractMode(aimlapi.OpEmbeddingGeneration, ec)
	if err != nil {
		return nil, err
	}
	body := profiles.EmbeddingBody(ec.common("input"))
	resp, err := ec.call(ctx, embeddingsPath, request.WithBody(body))
	if err != nil {
		return nil, err
	}

	vectors := extract.Embeddings(resp)
	switch mode {
	case "vector":
		if len(vectors) == 0 {
			return Output{"embedding": []float64{}}, nil
		}
		return Output{"embedding": vectors[0]}, nil
	case "vectors":
		if vectors == nil {
			vectors = [][]float64{}
		}
		return Output{"embeddings": vectors}, nil
	default:
		return Output{"result": resp.Value()}, nil
	}
}
