package httphandler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/directvault/internal/adapter/driven/direct"
	"github.com/ericfisherdev/directvault/internal/application"
	"github.com/ericfisherdev/directvault/internal/domain/port/driven"
)

// SSE frame markers bracketing a single command execution.
const (
	frameStart = "[FUNCTION_START]"
	frameEnd   = "[FUNCTION_END]"
)

// sseFrame is one intermediate event of a command stream. Content is
// base64-encoded so arbitrary command output survives the transport.
type sseFrame struct {
	FunctionResult string `json:"function_result"`
	Content        string `json:"content,omitempty"`
	ExitCode       *int   `json:"exit_code,omitempty"`
}

// sseWriter emits server-sent events and flushes after every frame so the
// consumer sees progress immediately.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) writeRaw(data string) {
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

func (s *sseWriter) writeFrame(f sseFrame) {
	payload, err := json.Marshal(f)
	if err != nil {
		return
	}
	s.writeRaw(string(payload))
}

// Start brackets the beginning of a command execution.
func (s *sseWriter) Start() {
	s.writeRaw(frameStart)
}

// Output emits a chunk of command output.
func (s *sseWriter) Output(content []byte) {
	s.writeFrame(sseFrame{
		FunctionResult: "output",
		Content:        base64.StdEncoding.EncodeToString(content),
	})
}

// Error emits an error message chunk.
func (s *sseWriter) Error(message string) {
	s.writeFrame(sseFrame{
		FunctionResult: "error",
		Content:        base64.StdEncoding.EncodeToString([]byte(message)),
	})
}

// Status emits the final exit code of the command.
func (s *sseWriter) Status(exitCode int) {
	s.writeFrame(sseFrame{FunctionResult: "status", ExitCode: &exitCode})
}

// End brackets the end of a command execution.
func (s *sseWriter) End() {
	s.writeRaw(frameEnd)
}

// streamCommand decodes the request into req, runs fn under the caller's
// identity, and streams the outcome as server-sent events. Result values are
// rendered as JSON inside an output frame; failures become an error frame
// with a non-zero exit code. The HTTP status is always 200 once the stream
// has started.
func (h *Handler) streamCommand(
	w http.ResponseWriter,
	r *http.Request,
	req any,
	fn func(ctx context.Context, owner string) (any, error),
) {
	owner := ownerFromContext(r.Context())

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stream, err := newSSEWriter(w)
	if err != nil {
		h.logger.Error("cannot stream response", "error", err)
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	stream.Start()
	defer stream.End()

	result, err := fn(r.Context(), owner)
	if err != nil {
		stream.Error(commandErrorMessage(err))
		stream.Status(1)
		h.logger.Warn("command failed", "owner", owner, "path", r.URL.Path, "error", err)
		return
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		stream.Error("failed to encode result")
		stream.Status(1)
		h.logger.Error("failed to encode command result", "path", r.URL.Path, "error", err)
		return
	}

	stream.Output(payload)
	stream.Status(0)
}

// commandErrorMessage maps command failures onto operator-facing messages.
// Raw error chains stay in the logs; the stream carries only what the
// caller can act on.
func commandErrorMessage(err error) string {
	var apiErr *direct.APIError
	switch {
	case errors.Is(err, driven.ErrProfileNotFound):
		return "profile not found; add it first via profiles/add"
	case errors.Is(err, direct.ErrReportTimeout):
		return "report was not ready in time; try again later"
	case errors.Is(err, application.ErrInvalidInput):
		return err.Error()
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "request to the Direct API timed out"
	default:
		return "internal error while executing the command"
	}
}
