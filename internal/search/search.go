// Package search keeps the product index in Elasticsearch and queries it.
// Hits carry only product ids; callers load the rows from the database so
// price, stock and vendor approval are never read from a stale document.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

var ErrIndex = errors.New("search index error")

type Document struct {
	ID          uint   `json:"id"`
	VendorID    uint   `json:"vendor_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	PriceMWK    int64  `json:"price_mwk"`
}

func DocumentFrom(p models.Product) Document {
	return Document{
		ID:          p.ID,
		VendorID:    p.VendorID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		PriceMWK:    p.PriceMWK,
	}
}

// NewClient connects and verifies the cluster answers.
func NewClient(ctx context.Context, addr, user, password string) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx).With("component", "search")

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: new client: %v", ErrIndex, err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		l.Error("es_connect_error", "addr", addr, "error", err)
		return nil, fmt.Errorf("%w: info: %v", ErrIndex, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		l.Error("es_connect_error", "addr", addr, "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: info: %s", ErrIndex, res.Status())
	}

	l.Info("es_connected", "addr", addr)
	return client, nil
}

type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func New(es *elasticsearch.Client, name string) *Index {
	return &Index{ES: es, Name: name}
}

const mapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "vendor_id":   {"type": "long"},
      "name":        {"type": "text"},
      "slug":        {"type": "keyword"},
      "description": {"type": "text"},
      "category":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "price_mwk":   {"type": "long"}
    }
  }
}`

// EnsureIndex creates the index when it does not exist yet.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.ES.Indices.Exists([]string{i.Name}, i.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: exists: %v", ErrIndex, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.ES.Indices.Create(i.Name,
		i.ES.Indices.Create.WithContext(ctx),
		i.ES.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("%w: create: %v", ErrIndex, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: create: %s", ErrIndex, res.Status())
	}
	return nil
}

// Put indexes or replaces the document for p.
func (i *Index) Put(ctx context.Context, p models.Product) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(DocumentFrom(p)); err != nil {
		return err
	}

	res, err := i.ES.Index(i.Name, &buf,
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("%w: index: %v", ErrIndex, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: index: %s", ErrIndex, res.Status())
	}
	return nil
}

// Delete removes the document. A missing document is not an error.
func (i *Index) Delete(ctx context.Context, id uint) error {
	res, err := i.ES.Delete(i.Name, strconv.FormatUint(uint64(id), 10), i.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: delete: %v", ErrIndex, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: delete: %s", ErrIndex, res.Status())
	}
	return nil
}

// Search returns the total hit count and the ids of one page of hits in score order.
func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Name),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: search: %v", ErrIndex, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("%w: search: %s", ErrIndex, res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID uint `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("%w: decode: %v", ErrIndex, err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return r.Hits.Total.Value, ids, nil
}
