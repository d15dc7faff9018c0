package layout

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sogis/landreg-extract/internal/capcache"
)

const capabilitiesXML = `<?xml version="1.0" encoding="utf-8"?>
<WMS_Capabilities xmlns="http://www.opengis.net/wms" version="1.3.0">
  <Capability>
    <ComposerTemplates>
      <ComposerTemplate name="A4-Hoch" width="210" height="297">
        <ComposerMap name="map0" width="190" height="180"/>
      </ComposerTemplate>
      <ComposerTemplate name="A3-Quer" width="420" height="297">
        <ComposerMap name="map0" width="400" height="200"/>
      </ComposerTemplate>
    </ComposerTemplates>
  </Capability>
</WMS_Capabilities>`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTemplates_ParsesComposerTemplates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("REQUEST") != "GetProjectSettings" {
			t.Errorf("REQUEST=%q want GetProjectSettings", r.URL.Query().Get("REQUEST"))
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(capabilitiesXML))
	}))
	defer srv.Close()

	c := NewCapabilitiesClient(discard(), srv.Client(), srv.URL, "grundbuch", "A4-Hoch",
		capcache.NewMemory(4, time.Minute))

	got, err := c.Templates(context.Background())
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(got))
	}
	if got[0].Name != "A4-Hoch" || !got[0].Default {
		t.Fatalf("first template %+v; want A4-Hoch marked default", got[0])
	}
	if got[1].Default {
		t.Fatalf("A3-Quer must not be default: %+v", got[1])
	}
	if got[0].Map.Name != "map0" || got[0].Map.Width != 190 || got[0].Map.Height != 180 {
		t.Fatalf("composer map %+v", got[0].Map)
	}

	// second call is served from the cache
	if _, err := c.Templates(context.Background()); err != nil {
		t.Fatalf("cached templates: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("upstream called %d times, want 1 (cache miss only)", n)
	}
}

func TestTemplates_UpstreamErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCapabilitiesClient(discard(), srv.Client(), srv.URL, "grundbuch", "A4-Hoch", nil)
	if _, err := c.Templates(context.Background()); err == nil {
		t.Fatal("expected error from 500 upstream")
	}
}
