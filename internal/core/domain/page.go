package domain

// PageClass drives the per-page chunking policy. Classification is per page,
// not per document: policy documents routinely mix narrative sections with
// dense eligibility tables.
type PageClass string

const (
	PageNarrative PageClass = "narrative"
	PageTable     PageClass = "table"
)

// Page is a transient ingestion artifact; it is never persisted on its own.
type Page struct {
	Number int
	Text   string
	Class  PageClass
}

// Chunk is the atomic retrievable unit. Context is used only when building
// the dense embedding input; the sparse vector is computed from Text alone.
type Chunk struct {
	DocumentID string
	Page       int
	Seq        int
	Text       string
	Context    string
}

func (c Chunk) EmbeddingText() string {
	if c.Context == "" {
		return c.Text
	}
	return c.Context + "\n\n" + c.Text
}
