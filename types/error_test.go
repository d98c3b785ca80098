package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrTransport, "upstream failed").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithProvider("aimlapi")

	if GetErrorCode(err) != ErrTransport {
		t.Fatalf("expected code %s, got %s", ErrTransport, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_HelpersSeeThroughWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("item 3: %w", NewPollTimeout("gen-1", 60))

	if !IsErrorCode(wrapped, ErrPollTimeout) {
		t.Fatalf("expected POLL_TIMEOUT through wrapping, got %q", GetErrorCode(wrapped))
	}
	e, ok := AsError(wrapped)
	if !ok {
		t.Fatalf("expected AsError to find *Error")
	}
	if e.GenerationID != "gen-1" {
		t.Fatalf("expected generation id gen-1, got %q", e.GenerationID)
	}
}

func TestNewUpstreamFailure_Message(t *testing.T) {
	t.Parallel()

	err := NewUpstreamFailure("abc", "failed", "nsfw")
	if !strings.Contains(err.Error(), `"failed": nsfw`) {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if err.Reason != "nsfw" || err.Status != "failed" || err.GenerationID != "abc" {
		t.Fatalf("unexpected fields %+v", err)
	}

	noReason := NewUpstreamFailure("abc", "error", "")
	if strings.HasSuffix(noReason.Message, ": ") {
		t.Fatalf("unexpected trailing separator %q", noReason.Message)
	}
}

func TestNewTransportError_Retryable(t *testing.T) {
	t.Parallel()

	cases := map[int]bool{0: true, 400: false, 401: false, 429: true, 500: true, 503: true}
	for status, want := range cases {
		if got := NewTransportError(status, "x").Retryable; got != want {
			t.Fatalf("status %d: expected retryable=%v, got %v", status, want, got)
		}
	}
}
