// Package search mirrors users into Elasticsearch and queries the mirror.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
)

const (
	DefaultSize = 10
	MaxSize     = 50

	requestTimeout = 3 * time.Second
)

// UserIndex is a users index in Elasticsearch. A nil client disables it.
type UserIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{ES: es, Index: index}
}

func (i *UserIndex) Enabled() bool {
	return i != nil && i.ES != nil && i.Index != ""
}

type userDoc struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	UpdatedAt string `json:"updated_at"`
}

// Put creates or replaces the document for u.
func (i *UserIndex) Put(ctx context.Context, u *entity.User) error {
	if !i.Enabled() {
		return nil
	}
	updated := u.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	b, err := json.Marshal(userDoc{ID: u.ID, Name: u.Name, Email: u.Email, UpdatedAt: updated.UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      i.Index,
		DocumentID: strconv.FormatInt(u.ID, 10),
		Body:       bytes.NewReader(b),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, i.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index user %d: %s", u.ID, res.Status())
	}
	return nil
}

// Remove deletes the document for id. A missing document is not an error.
func (i *UserIndex) Remove(ctx context.Context, id int64) error {
	if !i.Enabled() {
		return nil
	}
	req := esapi.DeleteRequest{Index: i.Index, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, i.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete user %d: %s", id, res.Status())
	}
	return nil
}

// ClampSize bounds a requested page size to 1..MaxSize, defaulting when unset.
func ClampSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Search runs a multi_match query on email and name.
func (i *UserIndex) Search(ctx context.Context, q string, size int) ([]entity.User, error) {
	if !i.Enabled() {
		return []entity.User{}, nil
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": ClampSize(size),
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := i.ES.Search(
		i.ES.Search.WithContext(c),
		i.ES.Search.WithIndex(i.Index),
		i.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		// index not created yet
		return []entity.User{}, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source userDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.User, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, entity.User{ID: h.Source.ID, Name: h.Source.Name, Email: h.Source.Email})
	}
	return out, nil
}
