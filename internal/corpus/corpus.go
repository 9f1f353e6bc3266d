// Package corpus provides the statutory corpus and benchmark query set.
// A corpus is an ordered, read-only collection of law documents; queries
// carry human-validated ground-truth law IDs.
package corpus

// LawDocument is a single statutory corpus entry used for retrieval and
// inspection.
type LawDocument struct {
	ID       string `json:"id"`
	Name     string `json:"law_name"`
	Text     string `json:"content"`
	Duration string `json:"law_duration,omitempty"`
}

// UnknownLawName is the placeholder for documents without a usable name.
const UnknownLawName = "未知法条"

// Corpus is the in-memory representation of the statutory corpus.
// It preserves load order and indexes documents by ID.
type Corpus struct {
	documents []LawDocument
	byID      map[string]int
}

// NewCorpus builds a corpus from an ordered document sequence. Later
// duplicates of an ID do not displace the first occurrence.
func NewCorpus(documents []LawDocument) *Corpus {
	c := &Corpus{
		documents: documents,
		byID:      make(map[string]int, len(documents)),
	}
	for i, doc := range documents {
		if _, ok := c.byID[doc.ID]; !ok {
			c.byID[doc.ID] = i
		}
	}
	return c
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.documents)
}

// Documents returns all documents in load order.
func (c *Corpus) Documents() []LawDocument {
	return c.documents
}

// Get returns the document with the given ID, if present.
func (c *Corpus) Get(id string) (LawDocument, bool) {
	i, ok := c.byID[id]
	if !ok {
		return LawDocument{}, false
	}
	return c.documents[i], true
}

// EvalQuery is a single benchmark query along with its labels.
// The ground-truth set is non-empty for every loaded query.
type EvalQuery struct {
	ID             string            `json:"id"`
	Text           string            `json:"query"`
	LawIDs         []string          `json:"law_ids"`
	Source         string            `json:"source,omitempty"`
	DetailedSource string            `json:"detailed_source,omitempty"`
	LawContents    map[string]string `json:"law_contents,omitempty"`
}
