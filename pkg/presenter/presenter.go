package presenter

import (
	"github.com/platinummonkey/querykit/pkg/repository"
)

// DefaultCollectionKey wraps collections when no CollectionKey is set
const DefaultCollectionKey = "data"

// Transformer shapes one record for output
type Transformer interface {
	Transform(rec repository.Record) map[string]interface{}
}

// TransformerFunc adapts a plain function to Transformer
type TransformerFunc func(rec repository.Record) map[string]interface{}

// Transform calls f
func (f TransformerFunc) Transform(rec repository.Record) map[string]interface{} {
	return f(rec)
}

// Identity returns records unchanged
var Identity = TransformerFunc(func(rec repository.Record) map[string]interface{} {
	return map[string]interface{}(rec)
})

// Fields keeps only the named columns of each record
func Fields(names ...string) Transformer {
	return TransformerFunc(func(rec repository.Record) map[string]interface{} {
		out := make(map[string]interface{}, len(names))
		for _, n := range names {
			if v, ok := rec[n]; ok {
				out[n] = v
			}
		}
		return out
	})
}

// Presenter renders records into response envelopes
type Presenter struct {
	// Transformer defaults to Identity
	Transformer Transformer
	// ItemKey wraps single items when set
	ItemKey string
	// CollectionKey wraps collections; DefaultCollectionKey when empty
	CollectionKey string
}

// Pagination is the metadata attached to paginated collections
type Pagination struct {
	Total       int64 `json:"total"`
	Count       int   `json:"count"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
}

func (p Presenter) transformer() Transformer {
	if p.Transformer == nil {
		return Identity
	}
	return p.Transformer
}

// Item renders one record. A nil record renders as nil.
func (p Presenter) Item(rec repository.Record) map[string]interface{} {
	if rec == nil {
		return nil
	}
	data := p.transformer().Transform(rec)
	if p.ItemKey == "" {
		return data
	}
	return map[string]interface{}{p.ItemKey: data}
}

// Collection renders records under the collection key
func (p Presenter) Collection(recs []repository.Record) map[string]interface{} {
	t := p.transformer()
	data := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		data = append(data, t.Transform(rec))
	}

	key := p.CollectionKey
	if key == "" {
		key = DefaultCollectionKey
	}
	return map[string]interface{}{key: data}
}

// Paginated renders a page as a collection with pagination metadata
// under "meta"
func (p Presenter) Paginated(page *repository.Page) map[string]interface{} {
	if page == nil {
		page = &repository.Page{}
	}
	out := p.Collection(page.Data)
	out["meta"] = map[string]interface{}{
		"pagination": Pagination{
			Total:       page.Total,
			Count:       len(page.Data),
			PerPage:     page.PerPage,
			CurrentPage: page.CurrentPage,
			TotalPages:  page.LastPage,
		},
	}
	return out
}
