package lms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lmswatch-backend/internal/telemetry"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

const testCookie = "lms_session"

func fakePortal(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.PostForm.Get("password") {
		case "correct":
			http.SetCookie(w, &http.Cookie{Name: testCookie, Value: "fresh-token"})
			http.Redirect(w, r, "/members/home", http.StatusFound)
		case "no-cookie":
			http.Redirect(w, r, "/members/home", http.StatusFound)
		default:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("<html>wrong password</html>"))
		}
	})
	mux.HandleFunc("/members/home", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(testCookie)
		if err != nil || cookie.Value != "fresh-token" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte("<html>home</html>"))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte("ok \xff\xfe bytes"))
	})
	mux.HandleFunc("/no-charset", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		w.Write([]byte("<p>زمان \xff شروع</p>"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t testing.TB, baseURL string) *Client {
	return NewClient(Config{
		BaseURL:           baseURL,
		CookieName:        testCookie,
		RequestsPerSecond: 100,
		TimeoutSeconds:    5,
	}, &telemetry.TestAPI{})
}

func TestClientLogin(t *testing.T) {
	server := fakePortal(t)
	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	token, err := client.Login(ctx, "alice", "correct")
	require.NoError(t, err)
	require.Equal(t, "fresh-token", token)

	token, err = client.Login(ctx, "alice", "wrong")
	require.NoError(t, err)
	require.Empty(t, token)

	token, err = client.Login(ctx, "alice", "no-cookie")
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestClientProbe(t *testing.T) {
	server := fakePortal(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	valid, err := client.Probe(ctx, "fresh-token")
	require.NoError(t, err)
	require.True(t, valid)

	valid, err = client.Probe(ctx, "stale-token")
	require.NoError(t, err)
	require.False(t, valid)
}

func TestClientFetchPage(t *testing.T) {
	server := fakePortal(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	page, err := client.FetchPage(ctx, "fresh-token", "/members/home")
	require.NoError(t, err)
	require.Equal(t, "<html>home</html>", page)

	// redirected to login
	page, err = client.FetchPage(ctx, "stale-token", "/members/home")
	require.NoError(t, err)
	require.Empty(t, page)

	page, err = client.FetchPage(ctx, "fresh-token", "/missing")
	require.NoError(t, err)
	require.Empty(t, page)

	page, err = client.FetchPage(ctx, "fresh-token", "/broken")
	require.NoError(t, err)
	require.Contains(t, page, "ok ")
	require.Contains(t, page, "\uFFFD")
	require.Contains(t, page, " bytes")
}

func TestClientFetchPageWithoutCharset(t *testing.T) {
	server := fakePortal(t)
	client := newTestClient(t, server.URL)

	page, err := client.FetchPage(context.Background(), "fresh-token", "/no-charset")
	require.NoError(t, err)
	require.Equal(t, "<p>زمان \uFFFD شروع</p>", page)
}

func TestClientSpans(t *testing.T) {
	spans := telemetry.RecordSpans()
	spans.Reset()

	server := fakePortal(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := client.FetchPage(ctx, "fresh-token", "/members/home")
	require.NoError(t, err)

	server.Close()
	_, err = client.FetchPage(ctx, "fresh-token", "/members/home")
	require.Error(t, err)

	ended := spans.GetSpans()
	require.Len(t, ended, 2)
	require.Equal(t, "client:FetchPage", ended[0].Name)
	require.Equal(t, codes.Unset, ended[0].Status.Code)
	require.Equal(t, codes.Error, ended[1].Status.Code)
	require.NotEmpty(t, ended[1].Events)
}

func TestClientUnreachable(t *testing.T) {
	server := fakePortal(t)
	url := server.URL
	server.Close()

	client := newTestClient(t, url)
	_, err := client.FetchPage(context.Background(), "", "/members/home")
	require.Error(t, err)
	_, err = client.Probe(context.Background(), "")
	require.Error(t, err)
}
