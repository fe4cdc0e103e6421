package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/blog_api/internal/models"
)

// PostIndex mirrors posts into an Elasticsearch index for full-text search.
type PostIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewPostIndex(es *elasticsearch.Client, index string) *PostIndex {
	if index == "" {
		index = "posts"
	}
	return &PostIndex{es: es, index: index}
}

func (p *PostIndex) IndexPost(ctx context.Context, post models.Post) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(post); err != nil {
		return fmt.Errorf("es: encode post %d: %w", post.ID, err)
	}

	res, err := p.es.Index(p.index, &buf,
		p.es.Index.WithContext(ctx),
		p.es.Index.WithDocumentID(docID(post.ID)),
	)
	if err != nil {
		return fmt.Errorf("es: index post %d: %w", post.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("es: index post %d: %s: %s", post.ID, res.Status(), readBody(res.Body))
	}
	return nil
}

// DeletePost treats a missing document as already deleted.
func (p *PostIndex) DeletePost(ctx context.Context, id uint) error {
	res, err := p.es.Delete(p.index, docID(id), p.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete post %d: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es: delete post %d: %s: %s", id, res.Status(), readBody(res.Body))
	}
	return nil
}

func (p *PostIndex) SearchPosts(ctx context.Context, query string, from, size int) (int64, []models.Post, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "subtitle", "content"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := p.es.Search(
		p.es.Search.WithContext(ctx),
		p.es.Search.WithIndex(p.index),
		p.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("es: search: %s: %s", res.Status(), readBody(res.Body))
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Post `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode search response: %w", err)
	}

	posts := make([]models.Post, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		posts[i] = hit.Source
	}
	return r.Hits.Total.Value, posts, nil
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
