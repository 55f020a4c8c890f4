package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/load"
)

// ImportResult describes the relational import of one dataset.
type ImportResult struct {
	Kind  dataset.Kind
	Stats load.ImportStats
	Err   error
}

// Import loads the JSON artifacts of kinds into store, one dataset at a time.
// A failed dataset is logged and the next one still runs.
func (p *Pipeline) Import(ctx context.Context, store *load.Store, kinds []dataset.Kind) ([]ImportResult, error) {
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	importer := load.NewImporter(store, p.Logger)

	results := make([]ImportResult, 0, len(kinds))
	var errorList []error
	for _, kind := range kinds {
		log := p.Logger.With("dataset", kind.String())
		res := ImportResult{Kind: kind}

		_, jsonPath := load.ArtifactPaths(p.Config.Output.Dir, kind.ArtifactBase())
		log.Info(fmt.Sprintf("Importing %s", jsonPath))

		records, err := load.ReadRecords(jsonPath)
		if err == nil {
			res.Stats, err = importer.Import(ctx, dataset.SpecFor(kind, p.Config), records)
		}
		if err != nil {
			res.Err = fmt.Errorf("error importing %s: %w", kind, err)
			log.Error(res.Err.Error())
			errorList = append(errorList, res.Err)
		} else {
			log.Info(fmt.Sprintf("Imported %d entities and %d values", res.Stats.Entities, res.Stats.Facts))
		}
		results = append(results, res)
	}

	return results, errors.Join(errorList...)
}
