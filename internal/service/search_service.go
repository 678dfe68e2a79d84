package service

import (
	"encoding/json"
	"log"

	"bakatter.app/server/internal/model"
	"github.com/meilisearch/meilisearch-go"
)

// SearchService maintains a meilisearch index of posts, best effort: index
// failures never fail the operation that triggered them.
type SearchService interface {
	IndexPost(post *model.Post) error
	DeletePost(id string) error
	Search(query string, limit int64) ([]SearchHit, error)
}

type SearchHit struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

type meiliPostDoc struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	Category  string `json:"category"`
	CreatedAt int64  `json:"created_at"`
}

type searchService struct {
	client meilisearch.ServiceManager
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{client: client}
	s.initIndex()
	return s
}

func (s *searchService) initIndex() {
	sortable := []string{"created_at"}
	if _, err := s.client.Index("posts").UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("search: failed to update sortable attributes: %v", err)
	}

	filterable := []string{"category"}
	filterableAny := make([]any, len(filterable))
	for i, v := range filterable {
		filterableAny[i] = v
	}
	if _, err := s.client.Index("posts").UpdateFilterableAttributes(&filterableAny); err != nil {
		log.Printf("search: failed to update filterable attributes: %v", err)
	}
}

func (s *searchService) IndexPost(post *model.Post) error {
	doc := meiliPostDoc{
		ID:        post.ID.String(),
		Text:      post.Text,
		Author:    post.Author.Name,
		Category:  post.Category,
		CreatedAt: post.CreatedAt.Unix(),
	}

	primaryKey := "id"
	_, err := s.client.Index("posts").AddDocuments([]meiliPostDoc{doc}, &primaryKey)
	return err
}

func (s *searchService) DeletePost(id string) error {
	_, err := s.client.Index("posts").DeleteDocument(id)
	return err
}

func (s *searchService) Search(query string, limit int64) ([]SearchHit, error) {
	resp, err := s.client.Index("posts").Search(query, &meilisearch.SearchRequest{
		Limit: limit,
		Sort:  []string{"created_at:desc"},
	})
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(resp.Hits))
	for _, raw := range resp.Hits {
		b, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		var hit SearchHit
		if err := json.Unmarshal(b, &hit); err != nil {
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
