package knowledge

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/medpilot/medpilot/internal/embeddings"
)

const collectionName = "medical_knowledge"

// Snippet is one reference passage in the knowledge base.
type Snippet struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Topic      string  `json:"topic,omitempty"`
	Similarity float32 `json:"similarity,omitempty"`
}

// Base is an embedded vector store of medical reference snippets. The
// context-retrieval stage queries it by symptom text to ground the
// reasoning service in retrieved passages.
type Base struct {
	db        *chromem.DB
	col       *chromem.Collection
	embedFunc chromem.EmbeddingFunc
}

// NewBase creates an in-memory knowledge base using the given embedder.
func NewBase(embedder embeddings.Embedder) (*Base, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Base{db: db, col: col, embedFunc: ef}, nil
}

// Add inserts or updates snippets.
func (b *Base) Add(ctx context.Context, snippets []Snippet) error {
	if len(snippets) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(snippets))
	for i, s := range snippets {
		docs[i] = chromem.Document{
			ID:      s.ID,
			Content: s.Content,
			Metadata: map[string]string{
				"source": s.Source,
				"topic":  s.Topic,
			},
		}
	}

	return b.col.AddDocuments(ctx, docs, 1)
}

// Search returns the snippets most similar to the query text.
func (b *Base) Search(ctx context.Context, query string, limit int) ([]Snippet, error) {
	if limit <= 0 {
		limit = 3
	}

	// chromem-go requires nResults <= collection size.
	count := b.col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := b.col.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("knowledge query: %w", err)
	}

	snippets := make([]Snippet, len(results))
	for i, r := range results {
		snippets[i] = Snippet{
			ID:         r.ID,
			Content:    r.Content,
			Source:     r.Metadata["source"],
			Topic:      r.Metadata["topic"],
			Similarity: r.Similarity,
		}
	}
	return snippets, nil
}

// Count returns the number of stored snippets.
func (b *Base) Count() int {
	return b.col.Count()
}

// Persist saves the knowledge base to the given directory.
func (b *Base) Persist(dir string) error {
	return b.db.ExportToFile(dir+"/knowledge.gob.gz", true, "")
}

// Load restores the knowledge base from the given directory.
func (b *Base) Load(dir string) error {
	if err := b.db.ImportFromFile(dir+"/knowledge.gob.gz", ""); err != nil {
		return fmt.Errorf("import knowledge base: %w", err)
	}

	// Re-acquire the collection reference after import.
	col := b.db.GetCollection(collectionName, b.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	b.col = col
	return nil
}
