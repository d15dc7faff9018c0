// Package router parses inbound requests and maps pipeline failures to HTTP
// status classes.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sogis/landreg-extract/internal/core/model"
	"github.com/sogis/landreg-extract/internal/core/observability"
	"github.com/sogis/landreg-extract/internal/layout"
)

// PrintHandler runs the extract pipeline for one validated request.
type PrintHandler interface {
	Extract(ctx context.Context, req model.ExtractRequest) (model.PrintResult, error)
}

// TemplateLister lists the print layouts the map server project offers.
type TemplateLister interface {
	Templates(ctx context.Context) ([]layout.TemplateInfo, error)
}

type Defaults struct {
	DPI string
	SRS string
}

// HandlePrint validates the form parameters and serves the rendered document.
func HandlePrint(logger *slog.Logger, defaults Defaults, project string, h PrintHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		req, err := ParsePrintRequest(r, defaults)
		if err != nil {
			writeError(sw, http.StatusBadRequest, "bad_request", err.Error())
			observability.ObserveHTTP(r.Method, "/print", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		res, err := h.Extract(r.Context(), req)
		if err != nil {
			status, code, msg := classify(err)
			logger.LogAttrs(r.Context(), slog.LevelWarn, "print failed",
				slog.String("parcel", string(req.Parcel)),
				slog.String("code", code),
				slog.Int("status", status))
			writeError(sw, status, code, msg)
			observability.ObserveHTTP(r.Method, "/print", status, time.Since(start).Seconds())
			return
		}

		sw.Header().Set("Content-Type", res.ContentType)
		sw.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
		sw.Header().Set("Content-Disposition", "attachment; filename="+project+".pdf")
		_, _ = sw.Write(res.Body)
		observability.ObserveHTTP(r.Method, "/print", sw.code, time.Since(start).Seconds())
	}
}

// HandleTemplates serves the available print layouts as JSON.
func HandleTemplates(logger *slog.Logger, l TemplateLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		infos, err := l.Templates(r.Context())
		if err != nil {
			status, code, msg := classify(err)
			logger.LogAttrs(r.Context(), slog.LevelWarn, "templates failed",
				slog.String("code", code))
			writeError(sw, status, code, msg)
			observability.ObserveHTTP(r.Method, "/templates", status, time.Since(start).Seconds())
			return
		}

		sw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(sw).Encode(infos)
		observability.ObserveHTTP(r.Method, "/templates", sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// ParsePrintRequest reads the form parameters of the print contract:
// PARCEL and EXTENT are required, everything else optional.
func ParsePrintRequest(r *http.Request, defaults Defaults) (model.ExtractRequest, error) {
	if err := r.ParseForm(); err != nil {
		return model.ExtractRequest{}, fmt.Errorf("parse form: %w", err)
	}
	get := func(k string) string {
		if v := r.PostForm.Get(k); v != "" {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(r.Form.Get(k))
	}

	parcel := get("PARCEL")
	if parcel == "" {
		return model.ExtractRequest{}, errors.New("missing required parameter: PARCEL")
	}

	rawExtent := get("EXTENT")
	if rawExtent == "" {
		return model.ExtractRequest{}, errors.New("missing required parameter: EXTENT")
	}
	extent, err := parseExtent(rawExtent)
	if err != nil {
		return model.ExtractRequest{}, fmt.Errorf("invalid EXTENT: %w", err)
	}

	var layers []string
	if raw := get("LAYERS"); raw != "" {
		for _, l := range strings.Split(raw, ",") {
			l = strings.TrimSpace(l)
			if l != "" {
				layers = append(layers, l)
			}
		}
	}

	dpi := get("DPI")
	if dpi == "" {
		dpi = defaults.DPI
	}
	srs := get("SRS")
	if srs == "" {
		srs = defaults.SRS
	}

	return model.ExtractRequest{
		Parcel:        model.ParcelKey(parcel),
		Extent:        extent,
		Template:      get("TEMPLATE"),
		Layers:        layers,
		Scale:         get("SCALE"),
		DPI:           dpi,
		SRS:           srs,
		Rotation:      get("ROTATION"),
		GridIntervalX: get("GRID_INTERVAL_X"),
		GridIntervalY: get("GRID_INTERVAL_Y"),
	}, nil
}

func parseExtent(raw string) (model.Extent, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return model.Extent{}, errors.New("expected 4 comma-separated values: x1,y1,x2,y2")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Extent{}, fmt.Errorf("coordinate %d: %w", i+1, err)
		}
		vals[i] = f
	}
	if vals[2] <= vals[0] || vals[3] <= vals[1] {
		return model.Extent{}, errors.New("coordinates must satisfy x2>x1 and y2>y1")
	}
	return model.Extent{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}, nil
}

// classify maps an error to its HTTP status, stable code and client message.
// Upstream error bodies never reach the client beyond the bounded excerpt the
// print client kept.
func classify(err error) (int, string, string) {
	var e *model.Error
	if !errors.As(err, &e) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 499, "request_cancelled", "request cancelled"
		}
		return http.StatusInternalServerError, "internal", "internal server error"
	}
	switch e.Kind {
	case model.KindNotFound:
		return http.StatusNotFound, string(e.Kind), e.Error()
	case model.KindUnknownLayer, model.KindUnknownTemplate:
		return http.StatusBadRequest, string(e.Kind), e.Error()
	case model.KindAmbiguousRecord, model.KindTemplateBinding:
		return http.StatusInternalServerError, string(e.Kind), e.Error()
	case model.KindUpstreamUnavailable:
		return http.StatusGatewayTimeout, string(e.Kind), "map server unavailable"
	case model.KindUpstreamError, model.KindMalformedDocument:
		return http.StatusBadGateway, string(e.Kind), e.Error()
	default:
		return http.StatusInternalServerError, string(e.Kind), "internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": msg,
	})
}
