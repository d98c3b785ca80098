package generation

import (
	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/extract"
	"github.com/BaSui01/aimlflow/aimlapi/payload"
	"github.com/BaSui01/aimlflow/types"
)

// verdict is the outcome of inspecting one payload.
type verdict struct {
	payload      *payload.Payload
	mediaType    aimlapi.MediaType
	promotedFrom string
	rawStatus    string
	status       Status
	id           string
	hasContent   bool
	poll         bool
}

// Classify maps a raw status string onto the vocabularies.
func Classify(raw string) Status {
	switch {
	case payload.IsFailure(raw):
		return StatusFailed
	case payload.IsRunning(raw):
		return StatusRunning
	case payload.IsSuccess(raw):
		return StatusSuccess
	}
	return StatusUnknown
}

// evaluate normalises p and decides whether polling is needed. sessionID is
// the id already established for this generation, or "" for the initial
// response. A failure status is reported before anything else.
func evaluate(p *payload.Payload, mediaType aimlapi.MediaType, sessionID string) (verdict, error) {
	np, from, err := payload.Normalize(p, mediaType)
	if err != nil {
		return verdict{}, types.NewError(types.ErrUnexpectedResponse, "failed to normalise payload").WithCause(err)
	}
	v := verdict{payload: np, mediaType: mediaType, promotedFrom: from, rawStatus: np.Status(), id: np.GenerationID()}
	v.status = Classify(v.rawStatus)
	if v.id == "" {
		v.id = sessionID
	}

	if v.status == StatusFailed {
		return v, types.NewUpstreamFailure(v.id, v.rawStatus, np.ErrorReason())
	}
	if v.id == "" {
		return v, nil
	}

	v.hasContent = extract.HasContent(np, mediaType)
	switch {
	case v.status == StatusRunning:
		v.poll = true
	case v.hasContent:
		// success, or a status we do not recognise, with media present
	default:
		v.poll = true
	}
	return v, nil
}
