package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lawbench/law-bench/internal/config"
	"github.com/lawbench/law-bench/internal/corpus"
	"github.com/lawbench/law-bench/internal/pkg/errors"
	"github.com/lawbench/law-bench/internal/pkg/textutil"
)

func init() {
	Register("remote", func(c *corpus.Corpus, cfg *config.Config) (Retriever, error) {
		return NewRemote(c, RemoteConfig{
			Endpoint:  cfg.Retriever.Endpoint,
			Timeout:   time.Duration(cfg.Retriever.TimeoutSeconds * float64(time.Second)),
			RateLimit: cfg.Retriever.RateLimit,
		})
	})
}

// RemoteConfig configures the remote retriever.
type RemoteConfig struct {
	// Endpoint is the retrieval service URL.
	Endpoint string

	// Timeout bounds each request. A timeout marks the query as failed,
	// not the run.
	Timeout time.Duration

	// RateLimit caps requests per second. 0 = unlimited.
	RateLimit float64
}

// Remote delegates retrieval to an external HTTP service and normalizes
// its responses. Transport failures and unparseable responses surface as
// distinct error kinds so the benchmark can tell "no relevant result"
// apart from "retriever unreachable".
type Remote struct {
	corpus   *corpus.Corpus
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewRemote creates a remote retriever.
func NewRemote(c *corpus.Corpus, cfg RemoteConfig) (*Remote, error) {
	if cfg.Endpoint == "" {
		return nil, errors.ValidationError("remote retriever requires a non-empty endpoint URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Remote{
		corpus:   c,
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  limiter,
	}, nil
}

// searchRequest is the wire request shape.
type searchRequest struct {
	Queries      []string `json:"queries"`
	TopK         int      `json:"topk"`
	ReturnScores bool     `json:"return_scores"`
}

// searchResponse is the wire response shape: one candidate list per
// submitted query.
type searchResponse struct {
	Result []json.RawMessage `json:"result"`
}

type searchEntry struct {
	Document *struct {
		ID json.RawMessage `json:"id"`
	} `json:"document"`
	Score *float64 `json:"score"`
}

// Search issues one request for the query and validates the response at
// the boundary.
func (r *Remote) Search(ctx context.Context, query string, topK int) ([]ScoredCandidate, error) {
	if topK <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, errors.TransportError("waiting for rate limiter", err)
		}
	}

	body, err := json.Marshal(searchRequest{
		Queries:      []string{query},
		TopK:         topK,
		ReturnScores: true,
	})
	if err != nil {
		return nil, errors.InternalError("encoding search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.TransportError("building search request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.TransportError("retrieval request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.TransportError(
			fmt.Sprintf("retrieval service returned status %d", resp.StatusCode), nil).
			WithDetail("endpoint", r.endpoint)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.TransportError("reading retrieval response", err)
	}

	return r.parseResponse(data, topK)
}

// parseResponse converts the raw wire response into candidates, failing
// with a protocol error on any structural deviation.
func (r *Remote) parseResponse(data []byte, topK int) ([]ScoredCandidate, error) {
	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.ProtocolError("decoding retrieval response", err)
	}
	if parsed.Result == nil {
		return nil, errors.ProtocolError("retrieval response has no result field", nil)
	}
	if len(parsed.Result) != 1 {
		return nil, errors.ProtocolError(
			fmt.Sprintf("expected 1 result list, got %d", len(parsed.Result)), nil)
	}

	var entries []searchEntry
	if err := json.Unmarshal(parsed.Result[0], &entries); err != nil {
		return nil, errors.ProtocolError("decoding result entries", err)
	}

	candidates := make([]ScoredCandidate, 0, len(entries))
	for i, entry := range entries {
		if entry.Document == nil {
			return nil, errors.ProtocolError(fmt.Sprintf("entry %d has no document", i), nil)
		}
		id := decodeWireID(entry.Document.ID)
		if id == "" {
			return nil, errors.ProtocolError(fmt.Sprintf("entry %d has no document id", i), nil)
		}
		if entry.Score == nil {
			return nil, errors.ProtocolError(fmt.Sprintf("entry %d has no score", i), nil)
		}

		candidates = append(candidates, r.materialize(id, *entry.Score))
		if len(candidates) >= topK {
			break
		}
	}

	return candidates, nil
}

// materialize fills name and snippet from the local corpus. Unknown IDs
// stay in the list; the service may index a wider corpus than ours.
func (r *Remote) materialize(id string, score float64) ScoredCandidate {
	candidate := ScoredCandidate{
		LawID: id,
		Score: score,
	}
	if doc, ok := r.corpus.Get(id); ok {
		candidate.LawName = doc.Name
		candidate.Snippet = textutil.Snippet(doc.Text, textutil.DefaultSnippetLimit)
	} else {
		candidate.LawName = "法条 " + id
	}
	return candidate
}

// decodeWireID accepts string and numeric document IDs.
func decodeWireID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}
