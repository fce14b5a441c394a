package projectapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specboard/specboard/document"
)

func TestGetAPISpec(t *testing.T) {
	doc := document.New()
	doc = document.AddRow(doc)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/p1/api-docs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		data, err := json.Marshal(doc)
		require.NoError(t, err)
		w.Write(data)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	got, err := client.GetAPISpec(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, got.Equal(&doc))
}

func TestGetAPISpecRaggedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"category": ["a", "b"], "functionName": ["only one"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetAPISpec(context.Background(), "p1")
	assert.True(t, IsFetchError(err))
}

func TestGetAPISpecServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetAPISpec(context.Background(), "p1")
	assert.True(t, IsFetchError(err))
}

func TestGetAPISpecUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.GetAPISpec(context.Background(), "p1")
	assert.True(t, IsFetchError(err))
}

func TestGetProposal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/p1/proposal", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "Team tool",
			"description": "A collaboration tool",
			"background": "Teams lose track of specs",
			"feature": {"main": "API table"},
			"effect": ["fewer surprises"]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	p, err := client.GetProposal(context.Background(), "p1")
	require.NoError(t, err)
	assert.NoError(t, p.Complete())
}

func TestGetProposalInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetProposal(context.Background(), "p1")
	assert.True(t, IsFetchError(err))
}

func TestGetFeatureSpec(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/p1/feature-spec", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"category": ["auth"], "functionName": ["login"], "description": ["issue session"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	f, err := client.GetFeatureSpec(context.Background(), "p1")
	require.NoError(t, err)
	assert.NoError(t, f.Ready())
}

func TestProjectIDEscaped(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetProposal(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/projects/a%2Fb/proposal", gotPath)
}
