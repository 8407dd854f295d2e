package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DMarby/pixelbench/internal/handler"
	"github.com/DMarby/pixelbench/internal/logger"
	"go.uber.org/zap"
)

func TestRecovery(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	defer log.Sync()

	ts := httptest.NewServer(handler.Recovery(log, http.HandlerFunc(panicHandler)))
	defer ts.Close()

	res, err := http.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("wrong status code %#v", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	if string(body) != "Something went wrong\n" {
		t.Errorf("wrong response %q", body)
	}

	if cacheControl := res.Header.Get("Cache-Control"); cacheControl != "no-cache, no-store, must-revalidate" {
		t.Errorf("wrong cache control %q", cacheControl)
	}
}

func panicHandler(w http.ResponseWriter, r *http.Request) {
	panic("panicking handler")
}
