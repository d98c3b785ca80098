package payload

import "github.com/BaSui01/aimlflow/aimlapi"

// Synonym tables, evaluated in priority order.
var (
	StatusFields       = []string{"status", "state", "task_status", "job_status", "stage", "task.status"}
	IDFields           = []string{"generation_id", "generationId", "id", "task_id", "taskId", "job_id", "jobId"}
	RootIDFields       = []string{"generation_id", "generationId"}
	ErrorMessageFields = []string{"message", "error"}
)

// Status vocabularies.
var (
	SuccessStatuses = setOf("succeeded", "success", "completed", "done", "ready", "finished")
	RunningStatuses = setOf("queued", "pending", "processing", "running", "in_progress", "generating")
	FailureStatuses = setOf("failed", "error", "cancelled", "canceled", "timeout", "timed_out", "expired")
)

// PromotionPaths lists, per media type, where providers nest their result
// collection. The first non-empty array or object found is moved to "data".
var PromotionPaths = map[aimlapi.MediaType][]string{
	aimlapi.MediaVideo: {
		"data", "result.data", "videos", "output.data", "output.videos",
		"result.videos", "assets", "output",
	},
	aimlapi.MediaAudio: {
		"data", "result.data", "audio_files", "tracks", "output.data",
		"output.audio_files", "result.tracks", "files",
	},
	aimlapi.MediaImage: {
		"data", "result.data", "images", "output.data", "output.images", "output",
	},
	aimlapi.MediaEmbedding: {
		"data", "result.data",
	},
}

func setOf(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// IsSuccess reports whether status belongs to the success vocabulary.
func IsSuccess(status string) bool { _, ok := SuccessStatuses[status]; return ok }

// IsRunning reports whether status belongs to the running vocabulary.
func IsRunning(status string) bool { _, ok := RunningStatuses[status]; return ok }

// IsFailure reports whether status belongs to the failure vocabulary.
func IsFailure(status string) bool { _, ok := FailureStatuses[status]; return ok }
