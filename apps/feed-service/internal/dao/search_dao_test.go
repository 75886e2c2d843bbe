package dao

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/apps/feed-service/internal/search"
	"tripfeed/pkg/logger"
)

func newTestSearchDAO(t *testing.T, handler http.HandlerFunc) SearchDAO {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewElasticsearchDAO(client, "posts", logger.NewNopLogger())
}

func TestElasticsearchDAO_Execute(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	d := newTestSearchDAO(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		_, _ = io.WriteString(w, `{
			"took": 3,
			"hits": {
				"total": {"value": 42, "relation": "eq"},
				"hits": [{"_id": "7"}, {"_id": "3"}, {"_id": "oops"}, {"_id": "9"}]
			}
		}`)
	})

	q := search.Compile(search.CompileRequest{Mode: model.FeedModeCommunity, Limit: 3})
	ranked, err := d.Execute(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "/posts/_search", gotPath)
	assert.Contains(t, gotBody, "query")
	assert.Equal(t, []int64{7, 3, 9}, ranked.IDs)
	assert.Equal(t, int64(42), ranked.Total)
}

func TestElasticsearchDAO_ExecuteError(t *testing.T) {
	d := newTestSearchDAO(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"parsing_exception"}}`)
	})

	_, err := d.Execute(context.Background(), search.Compile(search.CompileRequest{}))
	require.Error(t, err)

	var retrieval *model.RetrievalError
	require.ErrorAs(t, err, &retrieval)
	assert.True(t, strings.Contains(err.Error(), "search index"))
}
