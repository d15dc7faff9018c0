package layout

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sogis/landreg-extract/internal/capcache"
	"github.com/sogis/landreg-extract/internal/core/model"
	"github.com/sogis/landreg-extract/internal/core/observability"
	"github.com/sogis/landreg-extract/internal/printreq"
)

// TemplateInfo describes one print layout the map server project offers.
type TemplateInfo struct {
	Name    string  `json:"name"`
	Map     MapInfo `json:"map"`
	Default bool    `json:"default"`
}

type MapInfo struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CapabilitiesClient lists available print layouts from the map server's
// GetProjectSettings capabilities, with a short-TTL cache in front.
type CapabilitiesClient struct {
	logger          *slog.Logger
	client          *http.Client
	baseURL         string
	project         string
	defaultTemplate string
	cache           capcache.Store
}

func NewCapabilitiesClient(logger *slog.Logger, client *http.Client, baseURL, project, defaultTemplate string, cache capcache.Store) *CapabilitiesClient {
	if cache == nil {
		cache = capcache.Noop{}
	}
	return &CapabilitiesClient{
		logger:          logger,
		client:          client,
		baseURL:         baseURL,
		project:         project,
		defaultTemplate: defaultTemplate,
		cache:           cache,
	}
}

func (c *CapabilitiesClient) Templates(ctx context.Context) ([]TemplateInfo, error) {
	key := capcache.Key(c.project, c.baseURL)

	if b, ok, err := c.cache.Get(ctx, key); err != nil {
		observability.IncCapCacheError()
		c.logger.Warn("capabilities cache read failed", "err", err)
	} else if ok {
		var out []TemplateInfo
		if err := json.Unmarshal(b, &out); err == nil {
			observability.IncCapCacheHit()
			return out, nil
		}
		// stale or corrupt entry, fall through to refetch
	}
	observability.IncCapCacheMiss()

	out, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		if err := c.cache.Set(ctx, key, b); err != nil {
			observability.IncCapCacheError()
			c.logger.Warn("capabilities cache write failed", "err", err)
		}
	}
	return out, nil
}

func (c *CapabilitiesClient) fetch(ctx context.Context) ([]TemplateInfo, error) {
	endpoint := printreq.ProjectEndpoint(c.baseURL, c.project)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build capabilities request: %w", err)
	}
	q := req.URL.Query()
	q.Set("SERVICE", "WMS")
	q.Set("VERSION", "1.3.0")
	q.Set("REQUEST", "GetProjectSettings")
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, model.WrapError(model.KindUpstreamUnavailable, "capabilities", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, model.WrapError(model.KindUpstreamError,
			fmt.Sprintf("capabilities status %d", resp.StatusCode),
			fmt.Errorf("%s", string(b)))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, model.WrapError(model.KindUpstreamUnavailable, "capabilities", err)
	}
	return c.parse(b)
}

// projectSettings decodes just the ComposerTemplates branch of the
// GetProjectSettings capabilities document.
type projectSettings struct {
	Capability struct {
		ComposerTemplates struct {
			Templates []struct {
				Name string `xml:"name,attr"`
				Maps []struct {
					Name   string  `xml:"name,attr"`
					Width  float64 `xml:"width,attr"`
					Height float64 `xml:"height,attr"`
				} `xml:"ComposerMap"`
			} `xml:"ComposerTemplate"`
		} `xml:"ComposerTemplates"`
	} `xml:"Capability"`
}

func (c *CapabilitiesClient) parse(doc []byte) ([]TemplateInfo, error) {
	var ps projectSettings
	if err := xml.Unmarshal(doc, &ps); err != nil {
		return nil, model.WrapError(model.KindMalformedDocument, "capabilities", err)
	}

	out := make([]TemplateInfo, 0, len(ps.Capability.ComposerTemplates.Templates))
	for _, t := range ps.Capability.ComposerTemplates.Templates {
		info := TemplateInfo{Name: t.Name, Default: t.Name == c.defaultTemplate}
		if len(t.Maps) > 0 {
			info.Map = MapInfo{
				Name:   t.Maps[0].Name,
				Width:  t.Maps[0].Width,
				Height: t.Maps[0].Height,
			}
		}
		out = append(out, info)
	}
	return out, nil
}
