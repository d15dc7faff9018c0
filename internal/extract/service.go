// Package extract runs the print pipeline: resolve metadata and layout,
// compose the print request, call the map server, validate the document.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/sogis/landreg-extract/internal/core/model"
	"github.com/sogis/landreg-extract/internal/core/observability"
	"github.com/sogis/landreg-extract/internal/events"
	"github.com/sogis/landreg-extract/internal/layout"
	"github.com/sogis/landreg-extract/internal/logger"
	"github.com/sogis/landreg-extract/internal/metadata"
	"github.com/sogis/landreg-extract/internal/printclient"
	"github.com/sogis/landreg-extract/internal/printreq"
)

// PrintClient is the seam over the upstream print call.
type PrintClient interface {
	Send(ctx context.Context, params printreq.Parameters) (printclient.RawResponse, error)
}

// Validator is the seam over document validation.
type Validator interface {
	Validate(raw printclient.RawResponse) (model.PrintResult, error)
}

// Auditor receives an event per delivered extract.
type Auditor interface {
	Publish(ev events.Event)
}

type Service struct {
	logger    *slog.Logger
	metadata  metadata.Resolver
	layouts   *layout.Resolver
	client    PrintClient
	validator Validator
	auditor   Auditor       // nil when auditing is disabled
	sem       chan struct{} // bounds in-flight prints to the map server's capacity
	startNow  func() time.Time
}

func New(log *slog.Logger, md metadata.Resolver, layouts *layout.Resolver, client PrintClient, v Validator, auditor Auditor, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Service{
		logger:    log,
		metadata:  md,
		layouts:   layouts,
		client:    client,
		validator: v,
		auditor:   auditor,
		sem:       make(chan struct{}, maxConcurrent),
		startNow:  time.Now,
	}
}

// Extract produces one land register extract. Metadata and layout resolution
// run concurrently; both must succeed before anything reaches the map server.
func (s *Service) Extract(ctx context.Context, req model.ExtractRequest) (model.PrintResult, error) {
	ctx = logger.WithParcel(ctx, string(req.Parcel))
	start := s.startNow()

	type mdResult struct {
		rec model.MetadataRecord
		err error
	}
	mdCh := make(chan mdResult, 1)
	go func() {
		rec, err := s.metadata.Resolve(ctx, req.Parcel)
		mdCh <- mdResult{rec: rec, err: err}
	}()

	lay, layErr := s.layouts.Resolve(req.Template, req.Layers)
	md := <-mdCh

	// fail fast: no upstream work when either resolver failed
	if layErr != nil {
		return s.fail(ctx, layErr)
	}
	if md.err != nil {
		return s.fail(ctx, md.err)
	}

	params, err := printreq.Build(req, lay, md.rec)
	if err != nil {
		return s.fail(ctx, err)
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return model.PrintResult{}, ctx.Err()
	}
	defer func() { <-s.sem }()

	raw, err := s.client.Send(ctx, params)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.validator.Validate(raw)
	if err != nil {
		return s.fail(ctx, err)
	}

	// the result must not be delivered to a cancelled caller
	if err := ctx.Err(); err != nil {
		return model.PrintResult{}, err
	}

	observability.IncExtractResult("ok")
	if s.auditor != nil {
		names := make([]string, len(params.Layers))
		for i, l := range params.Layers {
			names[i] = l.Name
		}
		s.auditor.Publish(events.Event{
			Parcel:   string(req.Parcel),
			Template: params.Template,
			Layers:   names,
			Bytes:    len(res.Body),
			Duration: time.Since(start).Milliseconds(),
			TS:       time.Now().UTC(),
		})
	}
	return res, nil
}

func (s *Service) fail(ctx context.Context, err error) (model.PrintResult, error) {
	kind := model.KindOf(err)
	outcome := string(kind)
	if outcome == "" {
		outcome = "error"
	}
	observability.IncExtractResult(outcome)
	s.logger.LogAttrs(ctx, slog.LevelWarn, "extract failed",
		slog.String("kind", outcome),
		slog.String("err", err.Error()))
	return model.PrintResult{}, err
}
