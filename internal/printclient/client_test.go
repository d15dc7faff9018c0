package printclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sogis/landreg-extract/internal/core/model"
	"github.com/sogis/landreg-extract/internal/printreq"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testParams() printreq.Parameters {
	return printreq.Parameters{
		Parcel:   "CH.1.2033",
		Template: "A4-Hoch",
		Extent:   model.Extent{X1: 1, Y1: 2, X2: 3, Y2: 4},
		DPI:      "300",
		SRS:      "EPSG:2056",
		Rotation: "0",
		Layers:   []model.LayerSpec{{Name: "parcels"}},
	}
}

func TestSend_PostsFormToPrintEndpoint(t *testing.T) {
	pdf := append([]byte("%PDF-1.7\n"), make([]byte, 2048)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("REQUEST"); got != "GetPrint" {
			t.Errorf("REQUEST=%q want GetPrint", got)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	}))
	defer srv.Close()

	c := New(discard(), srv.Client(), srv.URL+"/grundbuch", 10*time.Second)
	got, err := c.Send(context.Background(), testParams())
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.ContentType != "application/pdf" {
		t.Fatalf("content type %q", got.ContentType)
	}
	if len(got.Body) != len(pdf) {
		t.Fatalf("body %d bytes want %d", len(got.Body), len(pdf))
	}
}

func TestSend_NonSuccessIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "ServerException: project not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(discard(), srv.Client(), srv.URL, 10*time.Second)
	_, err := c.Send(context.Background(), testParams())
	if model.KindOf(err) != model.KindUpstreamError {
		t.Fatalf("kind=%q want %q (err=%v)", model.KindOf(err), model.KindUpstreamError, err)
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("error must carry the upstream status: %v", err)
	}
}

func TestSend_ConnectionFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listens anymore

	c := New(discard(), &http.Client{}, url, time.Second)
	_, err := c.Send(context.Background(), testParams())
	if model.KindOf(err) != model.KindUpstreamUnavailable {
		t.Fatalf("kind=%q want %q (err=%v)", model.KindOf(err), model.KindUpstreamUnavailable, err)
	}
}

func TestSend_TimeoutIsUnavailable(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer func() { close(block); srv.Close() }()

	c := New(discard(), srv.Client(), srv.URL, 50*time.Millisecond)
	_, err := c.Send(context.Background(), testParams())
	if model.KindOf(err) != model.KindUpstreamUnavailable {
		t.Fatalf("kind=%q want %q (err=%v)", model.KindOf(err), model.KindUpstreamUnavailable, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Logf("timeout error: %v", err) // transport may wrap differently
	}
}
