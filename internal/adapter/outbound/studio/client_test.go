package studio_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilemcp/droidbridge/internal/adapter/outbound/studio"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestClient_Start(t *testing.T) {
	assert := assert.New(t)

	var gotPath string
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"App started","data":{"configurationName":"app"}}`))
	}))
	defer ts.Close()

	client := studio.NewClient(ts.URL, 5*time.Second, testLogger())
	res, err := client.Start(context.Background(), "/proj")

	require.NoError(t, err)
	assert.Equal("/api/start", gotPath)
	assert.Equal("/proj", gotBody["projectPath"])
	assert.True(res.Success)
	assert.Equal("App started", res.Message)
	assert.Equal("app", res.ConfigurationName)
}

func TestClient_ListConfigurations(t *testing.T) {
	assert := assert.New(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/api/configurations", r.URL.Path)
		assert.Equal(http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"configurations":["debug","release"]}}`))
	}))
	defer ts.Close()

	client := studio.NewClient(ts.URL, 5*time.Second, testLogger())
	configs, err := client.ListConfigurations(context.Background(), "")

	require.NoError(t, err)
	assert.Equal([]string{"debug", "release"}, configs)
}

func TestClient_ListConfigurationsRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"no project open"}`))
	}))
	defer ts.Close()

	client := studio.NewClient(ts.URL, 5*time.Second, testLogger())
	_, err := client.ListConfigurations(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project open")
}

func TestClient_SelectConfiguration(t *testing.T) {
	assert := assert.New(t)

	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(`{"success":true,"message":"selected"}`))
	}))
	defer ts.Close()

	client := studio.NewClient(ts.URL, 5*time.Second, testLogger())
	res, err := client.SelectConfiguration(context.Background(), "release", "/proj")

	require.NoError(t, err)
	assert.True(res.Success)
	assert.Equal("release", gotBody["configurationName"])
	assert.Equal("/proj", gotBody["projectPath"])
}

func TestClient_NonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer ts.Close()

	client := studio.NewClient(ts.URL, 5*time.Second, testLogger())
	_, err := client.Stop(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_Unreachable(t *testing.T) {
	// Reserve a port and close it so nothing is listening there.
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	client := studio.NewClient(url, time.Second, testLogger())
	_, err := client.Start(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
