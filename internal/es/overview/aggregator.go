package overview

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/logging"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Source is the part of the client the aggregator needs
type Source interface {
	Info(ctx context.Context) (*connection.InfoResponse, error)
	IndicesStats(ctx context.Context, names ...string) (*connection.IndicesStatsResponse, error)
	CatIndices(ctx context.Context, names ...string) ([]connection.CatIndexRow, error)
	CatAliases(ctx context.Context) ([]connection.CatAliasRow, error)
}

var _ Source = (*connection.Client)(nil)

// Aggregator builds the cluster overview of one connection
type Aggregator struct {
	source Source
	logger logrus.FieldLogger
}

// NewAggregator creates an overview aggregator
func NewAggregator(source Source, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{source: source, logger: logging.OrDiscard(logger)}
}

// Load fetches cluster info, statistics, indices and aliases in parallel.
// Indices are sorted by name and carry the aliases pointing at them.
func (a *Aggregator) Load(ctx context.Context) (*models.Overview, error) {
	var (
		info    *connection.InfoResponse
		stats   *connection.IndicesStatsResponse
		rows    []connection.CatIndexRow
		aliases []connection.CatAliasRow
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = a.source.Info(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = a.source.IndicesStats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = a.source.CatIndices(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		aliases, err = a.source.CatAliases(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.WithError(err).Warn("overview load failed")
		return nil, err
	}

	briefs := JoinAliases(rows, aliases)
	models.SortBriefsByName(briefs)

	return &models.Overview{
		Info:    info.ClusterInfo(),
		Stats:   stats.ClusterStats(),
		Indices: briefs,
	}, nil
}

// ListIndexBriefs lists the indices of the cluster, largest first
func (a *Aggregator) ListIndexBriefs(ctx context.Context) ([]models.IndexBrief, error) {
	rows, err := a.source.CatIndices(ctx)
	if err != nil {
		return nil, err
	}
	briefs := make([]models.IndexBrief, 0, len(rows))
	for _, row := range rows {
		briefs = append(briefs, row.Brief())
	}
	models.SortBriefsByDocs(briefs)
	return briefs, nil
}

// JoinAliases attaches alias names to the brief of the index they point to
func JoinAliases(rows []connection.CatIndexRow, aliases []connection.CatAliasRow) []models.IndexBrief {
	byIndex := make(map[string][]string)
	for _, alias := range aliases {
		byIndex[alias.Index] = append(byIndex[alias.Index], alias.Alias)
	}

	briefs := make([]models.IndexBrief, 0, len(rows))
	for _, row := range rows {
		brief := row.Brief()
		if names := byIndex[row.Index]; len(names) > 0 {
			brief.Aliases = append([]string(nil), names...)
			sort.Strings(brief.Aliases)
		}
		briefs = append(briefs, brief)
	}
	return briefs
}
