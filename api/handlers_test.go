package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/tagdex/internal/engine"
	"github.com/gcbaptista/tagdex/internal/jobs"
	"github.com/gcbaptista/tagdex/model"
	"github.com/gcbaptista/tagdex/services"
)

func newTestRouter(t *testing.T, lines string) (*gin.Engine, *jobs.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(lines), 0600))

	eng := engine.New(dataPath, filepath.Join(dir, "status.txt"), '|')
	require.NoError(t, eng.LoadIncremental(true))

	jobManager := jobs.NewManager(1)
	jobManager.Start()
	t.Cleanup(jobManager.Stop)

	router := gin.New()
	SetupRoutes(router, NewAPI(eng, jobManager, filepath.Join(dir, "index_data"), true))
	return router, jobManager
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a\n")
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQueryEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a|b\nd2|b|c\nd3|a|c\nd4|a|b|c\n")

	w := doJSON(t, router, http.MethodPost, "/query", QueryRequest{
		Tags:      []string{"a", "b"},
		Operation: "AND",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result services.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"d1", "d4"}, result.Documents)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "AND", result.Operation)
	assert.NotEmpty(t, result.QueryID)
}

func TestQueryEndpointLowercaseOperation(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a\nd2|b\n")

	w := doJSON(t, router, http.MethodPost, "/query", QueryRequest{
		Tags:      []string{"a", "b"},
		Operation: "or",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result services.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"d1", "d2"}, result.Documents)
}

func TestQueryEndpointUnknownOperation(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a\n")

	w := doJSON(t, router, http.MethodPost, "/query", QueryRequest{
		Tags:      []string{"a"},
		Operation: "NAND",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryEndpointNoTags(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a\n")

	w := doJSON(t, router, http.MethodPost, "/query", QueryRequest{Operation: "AND"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryEndpointUnknownTagReturnsEmpty(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a\n")

	w := doJSON(t, router, http.MethodPost, "/query", QueryRequest{
		Tags:      []string{"nope"},
		Operation: "OR",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result services.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Empty(t, result.Documents)
}

func TestDocumentTagsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a|b\n")

	w := doJSON(t, router, http.MethodGet, "/documents/d1/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Document string   `json:"document"`
		Tags     []string `json:"tags"`
		Count    int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "d1", body.Document)
	assert.ElementsMatch(t, []string{"a", "b"}, body.Tags)
	assert.Equal(t, 2, body.Count)
}

func TestDocumentTagsEndpointUnknownDocument(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a\n")

	w := doJSON(t, router, http.MethodGet, "/documents/ghost/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tags  []string `json:"tags"`
		Count int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Tags)
	assert.Zero(t, body.Count)
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a|b\nd2|c\n")

	w := doJSON(t, router, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats services.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.DocumentCount)
	assert.Equal(t, 3, stats.TagCount)
	assert.NotZero(t, stats.LastProcessedOffset)
}

func TestIngestEndpointReturnsJob(t *testing.T) {
	router, jobManager := newTestRouter(t, "d1|a\n")

	w := doJSON(t, router, http.MethodPost, "/ingest", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var body struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.JobID)

	job, err := jobManager.GetJob(body.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobTypeIngest, job.Type)
}

func TestJobEndpointUnknownJob(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a\n")

	w := doJSON(t, router, http.MethodGet, "/jobs/no-such-job", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyticsEndpointCountsQueries(t *testing.T) {
	router, _ := newTestRouter(t, "d1|a\n")

	doJSON(t, router, http.MethodPost, "/query", QueryRequest{Tags: []string{"a"}, Operation: "OR"})
	w := doJSON(t, router, http.MethodGet, "/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap struct {
		TotalQueries int64            `json:"total_queries"`
		QueriesByOp  map[string]int64 `json:"queries_by_operation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.QueriesByOp["OR"])
}
