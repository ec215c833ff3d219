package reddit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bottagger/pkg/config"
	errs "bottagger/pkg/errors"
	"bottagger/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func testConfig(baseURL string) config.RedditConfig {
	cfg := config.DefaultConfig().Reddit
	cfg.BaseURL = baseURL
	cfg.RequestTimeout = 2 * time.Second
	return cfg
}

func newServerClient(t *testing.T, handler http.HandlerFunc) (*Client, *logger.TestLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log := logger.NewTestLogger()
	return NewClient(testConfig(srv.URL), log), log
}

const aboutBody = `{"kind":"t2","data":{"name":"example","link_karma":200000,"comment_karma":1000,"created_utc":1577836800.0}}`

func TestFetchProfileSuccess(t *testing.T) {
	var gotPath, gotUA string
	client, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, aboutBody)
	})

	res := client.FetchProfile(context.Background(), "example")

	require.Equal(t, OutcomeSuccess, res.Outcome, "err: %v", res.Err)
	assert.Equal(t, "/user/example/about.json", gotPath)
	assert.Equal(t, config.DefaultConfig().Reddit.UserAgent, gotUA)
	assert.Equal(t, int64(200000), res.Stats.Primary)
	assert.Equal(t, int64(1000), res.Stats.Secondary)
	require.NotNil(t, res.Stats.CreatedAt)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), *res.Stats.CreatedAt)
}

func TestFetchProfileMissingFieldsDefaultToZero(t *testing.T) {
	client, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"kind":"t2","data":{"name":"suspended","is_suspended":true}}`)
	})

	res := client.FetchProfile(context.Background(), "suspended")
	require.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, int64(0), res.Stats.Primary)
	assert.Equal(t, int64(0), res.Stats.Secondary)
	assert.Nil(t, res.Stats.CreatedAt)
}

func TestFetchProfileThrottled(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantHinted bool
		wantAfter  time.Duration
	}{
		{"with reset header", "30", true, 30 * time.Second},
		{"fractional reset", "12.2", true, 13 * time.Second},
		{"no reset header", "", false, 0},
		{"garbage reset header", "soon", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set(RateLimitResetHeader, tt.header)
				}
				w.WriteHeader(http.StatusTooManyRequests)
			})

			res := client.FetchProfile(context.Background(), "example")
			assert.Equal(t, OutcomeThrottled, res.Outcome)
			assert.Equal(t, tt.wantHinted, res.HasRetryAfter)
			assert.Equal(t, tt.wantAfter, res.RetryAfter)
		})
	}
}

func TestFetchProfileFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType errs.ErrorType
	}{
		{"not found", http.StatusNotFound, `{"message":"Not Found","error":404}`, errs.ErrorTypeNotFound},
		{"forbidden", http.StatusForbidden, "", errs.ErrorTypeAuth},
		{"server error", http.StatusBadGateway, "", errs.ErrorTypeServerError},
		{"teapot", http.StatusTeapot, "", errs.ErrorTypeUnknown},
		{"malformed json", http.StatusOK, `{"data":`, errs.ErrorTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			res := client.FetchProfile(context.Background(), "example")
			assert.Equal(t, OutcomeFailure, res.Outcome)
			assert.Equal(t, tt.wantType, errs.TypeOf(res.Err))
			assert.False(t, res.Timeout())
		})
	}
}

func TestFetchProfileTimeout(t *testing.T) {
	client, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.requestTimeout = 50 * time.Millisecond

	res := client.FetchProfile(context.Background(), "slowpoke")
	assert.Equal(t, OutcomeFailure, res.Outcome)
	assert.True(t, res.Timeout(), "err: %v", res.Err)
}

func TestFetchProfileTransportError(t *testing.T) {
	client := NewClient(testConfig("http://reddit.invalid"), logger.NewNopLogger())
	client.httpClient = &http.Client{Transport: &mockRoundTripper{
		handler: func(req *http.Request) (*http.Response, error) {
			return nil, io.ErrUnexpectedEOF
		},
	}}

	res := client.FetchProfile(context.Background(), "example")
	assert.Equal(t, OutcomeFailure, res.Outcome)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(res.Err))
}

func TestFetchProfileDeletedIssuesNoRequest(t *testing.T) {
	var calls int32
	client, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	res := client.FetchProfile(context.Background(), DeletedUsername)
	assert.Equal(t, OutcomeFailure, res.Outcome)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestOAuthToken(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		io.WriteString(w, aboutBody)
	}))
	defer srv.Close()

	cfg := testConfig(BaseURL)
	cfg.AccessToken = "tok"
	cfg.OAuthBaseURL = srv.URL
	client := NewClient(cfg, logger.NewNopLogger())

	assert.Equal(t, srv.URL, client.BaseURL())
	res := client.FetchProfile(context.Background(), "example")
	require.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, "bearer tok", gotAuth)
	assert.Equal(t, "/user/example/about.json", gotPath)
}

func TestGetPage(t *testing.T) {
	client := NewClient(testConfig(BaseURL), logger.NewNopLogger())
	client.httpClient = &http.Client{Transport: &mockRoundTripper{
		handler: func(req *http.Request) (*http.Response, error) {
			if req.URL.String() == "https://old.reddit.com/r/pics/" {
				return newResponse(http.StatusOK, "<html><body>listing</body></html>"), nil
			}
			resp := newResponse(http.StatusTooManyRequests, "")
			resp.Header.Set(RateLimitResetHeader, "7")
			return resp, nil
		},
	}}

	body, err := client.GetPage(context.Background(), "https://old.reddit.com/r/pics/")
	require.NoError(t, err)
	assert.Contains(t, string(body), "listing")

	_, err = client.GetPage(context.Background(), "https://old.reddit.com/r/other/")
	require.Error(t, err)
	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeRateLimit, apiErr.Type)
	assert.True(t, apiErr.HasRetryAfter)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
}

func TestRequestsAreLogged(t *testing.T) {
	client, log := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client.FetchProfile(context.Background(), "missing")
	assert.True(t, log.HasMessage("HTTP request client error"))
}
