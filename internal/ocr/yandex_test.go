package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var pdfStub = []byte("%PDF-1.4\n%stub\n")

func newTestEngine(t *testing.T, ocrHandler http.HandlerFunc) (*YandexEngine, *atomic.Int32) {
	t.Helper()
	var iamCalls atomic.Int32

	iam := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		iamCalls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["yandexPassportOauthToken"] != "oauth-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"iamToken":"iam-1"}`))
	}))
	t.Cleanup(iam.Close)

	srv := httptest.NewServer(ocrHandler)
	t.Cleanup(srv.Close)

	e := NewYandexEngine("oauth-1", "folder-1", logs.GetLoggerFromLevel(slog.LevelDebug))
	e.Endpoint = srv.URL
	e.IAM().Endpoint = iam.URL
	return e, &iamCalls
}

func TestYandexEngine_Recognize(t *testing.T) {
	req := require.New(t)

	e, iamCalls := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("Bearer iam-1", r.Header.Get("Authorization"))
		req.Equal("folder-1", r.Header.Get("x-folder-id"))

		var body recognizeRequest
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		req.Equal("PDF", body.MimeType)
		req.Equal([]string{"en"}, body.LanguageCodes)
		decoded, err := base64.StdEncoding.DecodeString(body.Content)
		req.NoError(err)
		req.Equal(pdfStub, decoded)

		_, _ = w.Write([]byte(`{"result":{"textAnnotation":{"fullText":"  Allocation concealment  "}}}`))
	})

	text, err := e.Recognize(context.Background(), pdfStub)
	req.NoError(err)
	req.Equal("Allocation concealment", text)

	// token is cached
	_, err = e.Recognize(context.Background(), pdfStub)
	req.NoError(err)
	req.Equal(int32(1), iamCalls.Load())
}

func TestYandexEngine_FallsBackToLines(t *testing.T) {
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"textAnnotation":{"blocks":[` +
			`{"lines":[{"text":"Methods"},{"text":" "}]},{"lines":[{"text":"Results"}]}]}}}`))
	})

	text, err := e.Recognize(context.Background(), pdfStub)
	require.NoError(t, err)
	require.Equal(t, "Methods\nResults", text)
}

func TestYandexEngine_RefreshesTokenOnce(t *testing.T) {
	var calls atomic.Int32
	e, iamCalls := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"textAnnotation":{"fullText":"ok"}}}`))
	})

	text, err := e.Recognize(context.Background(), pdfStub)
	require.NoError(t, err)
	require.Equal(t, "ok", text)
	require.Equal(t, int32(2), iamCalls.Load())
}

func TestYandexEngine_Error(t *testing.T) {
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := e.Recognize(context.Background(), pdfStub)
	require.ErrorContains(t, err, "yandex ocr 429")
}

func TestYandexEngine_UnsupportedType(t *testing.T) {
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not be called")
	})

	_, err := e.Recognize(context.Background(), []byte("plain words"))
	require.ErrorContains(t, err, "unsupported document type")
}
