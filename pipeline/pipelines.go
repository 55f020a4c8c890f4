package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/techchallenge/vitibrasil-etl/config"
	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/extract"
	"github.com/techchallenge/vitibrasil-etl/load"
	"github.com/techchallenge/vitibrasil-etl/transform"
	"github.com/techchallenge/vitibrasil-etl/utils"
)

type Pipeline struct {
	Config *config.Config
	Client *extract.Client
	Logger *slog.Logger
	clock  utils.Clock
}

// NewPipeline builds a pipeline; a nil clock uses the system clock.
func NewPipeline(cfg *config.Config, logger *slog.Logger, clock utils.Clock) *Pipeline {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Pipeline{
		Config: cfg,
		Client: extract.NewClient(cfg, logger),
		Logger: logger,
		clock:  clock,
	}
}

// Result describes one sanitized dataset. Err is set when the dataset failed,
// in which case no artifact was written.
type Result struct {
	Kind     dataset.Kind
	Rows     int
	CSVPath  string
	JSONPath string
	Duration time.Duration
	Err      error
}

// RunDataset downloads, sanitizes and persists one dataset. The first error
// aborts the dataset.
func (p *Pipeline) RunDataset(ctx context.Context, kind dataset.Kind) (res Result) {
	sw := utils.StartStopwatch(p.clock)
	log := p.Logger.With("dataset", kind.String())
	res = Result{Kind: kind}
	defer func() { res.Duration = sw.Elapsed() }()

	spec := dataset.SpecFor(kind, p.Config)
	log.Info(fmt.Sprintf("Downloading %s", spec.URL))

	raw, err := p.Client.Acquire(ctx, spec.URL, spec.Delimiter, spec.Encoding, p.Config.Output.RawDir)
	if err != nil {
		res.Err = fmt.Errorf("error acquiring %s: %w", kind, err)
		log.Error(res.Err.Error())
		return res
	}

	sanitized, err := transform.Sanitize(spec, raw)
	if err != nil {
		res.Err = fmt.Errorf("error sanitizing %s: %w", kind, err)
		log.Error(res.Err.Error())
		return res
	}

	res.CSVPath, res.JSONPath = load.ArtifactPaths(p.Config.Output.Dir, kind.ArtifactBase())
	if err := p.persist(spec, sanitized, res.CSVPath, res.JSONPath); err != nil {
		res.Err = fmt.Errorf("error persisting %s: %w", kind, err)
		log.Error(res.Err.Error())
		return res
	}
	res.Rows = sanitized.Table.Len()

	log.Info(fmt.Sprintf("Sanitized %d of %d source rows", res.Rows, raw.Len()), "csv", res.CSVPath, "json", res.JSONPath)
	return res
}

func (p *Pipeline) persist(spec dataset.Spec, s *transform.Sanitized, csvPath, jsonPath string) error {
	var artifacts load.Artifacts
	var err error
	if spec.Behavior == dataset.Trade {
		artifacts, err = load.RenderTrade(s.Trade)
	} else {
		artifacts, err = load.RenderTable(s.Table)
	}
	if err != nil {
		return err
	}
	return artifacts.Write(csvPath, jsonPath)
}

// RunAll runs every kind, at most pipeline.max_parallel at a time. A failed
// dataset never stops the others; the failures are joined in the returned error.
func (p *Pipeline) RunAll(ctx context.Context, kinds []dataset.Kind) ([]Result, error) {
	maxParallel := p.Config.Pipeline.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}

	mapper := iter.Mapper[dataset.Kind, Result]{
		MaxGoroutines: maxParallel,
	}
	results := mapper.Map(kinds, func(kind *dataset.Kind) Result {
		return p.RunDataset(ctx, *kind)
	})

	var errorList []error
	for _, r := range results {
		if r.Err != nil {
			errorList = append(errorList, r.Err)
		}
	}

	if len(errorList) > 0 {
		p.Logger.Info(fmt.Sprintf("Sanitized %d datasets; failed on %d datasets", len(kinds)-len(errorList), len(errorList)))
		return results, errors.Join(errorList...)
	}
	p.Logger.Info(fmt.Sprintf("Sanitized %d datasets", len(kinds)))
	return results, nil
}
