package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lawbench/law-bench/internal/pkg/errors"
)

// LoadCorpus loads the law corpus from a JSONL file, one document per
// line. A non-positive limit loads everything. Malformed records are
// fatal: scoring must never start against a partially misread corpus.
func LoadCorpus(path string, limit int) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeData, "opening corpus file", err)
	}
	defer f.Close()

	var documents []LawDocument

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var raw struct {
			ID       json.RawMessage `json:"id"`
			Name     string          `json:"law_name"`
			Content  string          `json:"content"`
			Duration string          `json:"law_duration"`
		}
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, errors.Wrap(errors.CodeData,
				fmt.Sprintf("corpus line %d: invalid JSON", line), err)
		}

		id := normalizeID(raw.ID)
		if id == "" {
			return nil, errors.DataError(
				fmt.Sprintf("corpus line %d: missing document id", line))
		}

		name := strings.TrimSpace(raw.Name)
		if name == "" {
			name = UnknownLawName
		}

		documents = append(documents, LawDocument{
			ID:       id,
			Name:     name,
			Text:     raw.Content,
			Duration: raw.Duration,
		})
		if limit > 0 && len(documents) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.CodeData, "reading corpus file", err)
	}

	if len(documents) == 0 {
		return nil, errors.DataError(fmt.Sprintf("no documents parsed from %s", path))
	}

	return NewCorpus(documents), nil
}

// LoadQueries loads benchmark queries from a JSON array file. A
// non-positive limit loads everything; otherwise the cap is applied
// before the benchmark iterates. Every query must carry text and a
// non-empty ground-truth set.
func LoadQueries(path string, limit int) ([]EvalQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeData, "reading queries file", err)
	}

	var raw []struct {
		ID             string          `json:"id"`
		Query          string          `json:"query"`
		Question       string          `json:"question"`
		LawIDs         json.RawMessage `json:"law_ids"`
		Source         string          `json:"source"`
		DetailedSource string          `json:"detailed_source"`
		Description    string          `json:"description"`
		LawContents    json.RawMessage `json:"law_contents"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.CodeData, "queries file must contain a JSON array", err)
	}

	queries := make([]EvalQuery, 0, len(raw))
	for i, item := range raw {
		text := strings.TrimSpace(item.Query)
		if text == "" {
			text = strings.TrimSpace(item.Question)
		}
		if text == "" {
			return nil, errors.DataError(fmt.Sprintf("query at index %d: missing query text", i))
		}

		lawIDs, err := normalizeLawIDs(item.LawIDs)
		if err != nil {
			return nil, errors.Wrap(errors.CodeData,
				fmt.Sprintf("query at index %d: invalid law_ids", i), err)
		}
		if len(lawIDs) == 0 {
			return nil, errors.DataError(fmt.Sprintf("query at index %d: empty ground truth", i))
		}

		id := item.ID
		if id == "" {
			id = fmt.Sprintf("q-%d", i+1)
		}

		detailed := strings.TrimSpace(item.DetailedSource)
		if detailed == "" {
			detailed = strings.TrimSpace(item.Description)
		}

		contents, err := parseLawContents(item.LawContents)
		if err != nil {
			return nil, errors.Wrap(errors.CodeData,
				fmt.Sprintf("query at index %d: invalid law_contents", i), err)
		}

		queries = append(queries, EvalQuery{
			ID:             id,
			Text:           text,
			LawIDs:         lawIDs,
			Source:         strings.TrimSpace(item.Source),
			DetailedSource: detailed,
			LawContents:    contents,
		})
		if limit > 0 && len(queries) >= limit {
			break
		}
	}

	return queries, nil
}

// normalizeID accepts both string and numeric JSON IDs; law IDs are
// opaque strings everywhere downstream.
func normalizeID(raw json.RawMessage) string {
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

func normalizeLawIDs(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if string(item) == "null" {
			continue
		}
		id := normalizeID(item)
		if id == "" {
			return nil, fmt.Errorf("law id %s is neither string nor number", item)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseLawContents accepts either the map form {law_id: text} or the
// legacy list form [{law_id, content}].
func parseLawContents(raw json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap, nil
	}

	var asList []struct {
		LawID   json.RawMessage `json:"law_id"`
		Content string          `json:"content"`
	}
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil, err
	}

	contents := make(map[string]string, len(asList))
	for _, entry := range asList {
		id := normalizeID(entry.LawID)
		if id == "" {
			continue
		}
		contents[id] = entry.Content
	}
	return contents, nil
}
