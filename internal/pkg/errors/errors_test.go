package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			"without wrapped error",
			New(CodeData, "empty ground truth"),
			"DATA_ERROR: empty ground truth",
		},
		{
			"with wrapped error",
			Wrap(CodeTransport, "request failed", stderrors.New("connection refused")),
			"RETRIEVAL_TRANSPORT_ERROR: request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := stderrors.New("timeout")
	err := TransportError("request failed", inner)

	if !stderrors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"app error", ProtocolError("bad response", nil), CodeProtocol},
		{"wrapped app error", fmt.Errorf("query 3: %w", DataError("missing text")), CodeData},
		{"plain error", stderrors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsRetrievalFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", TransportError("timeout", nil), true},
		{"protocol", ProtocolError("unparseable response", nil), true},
		{"data", DataError("bad record"), false},
		{"metric", MetricError("empty ground truth"), false},
		{"plain", stderrors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetrievalFailure(tt.err); got != tt.want {
				t.Errorf("IsRetrievalFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithDetail(t *testing.T) {
	err := ValidationError("unknown retriever type").
		WithDetail("type", "dense").
		WithDetail("known", "lexical, remote, qdrant")

	if err.Details["type"] != "dense" {
		t.Errorf("Details[type] = %q, want %q", err.Details["type"], "dense")
	}
	if !strings.Contains(err.Details["known"], "lexical") {
		t.Errorf("Details[known] = %q, want it to mention lexical", err.Details["known"])
	}
}
