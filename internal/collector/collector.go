// Package collector runs the full search-and-upload cycle: search each
// configured city, enrich every hit, then push the results to the record
// store.
package collector

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundascout/fundascout/internal/model"
	"github.com/fundascout/fundascout/internal/scores"
	"github.com/fundascout/fundascout/pkg/funda"
	"github.com/fundascout/fundascout/pkg/notion"
)

// Searcher finds listings for a city.
type Searcher interface {
	Search(ctx context.Context, city string) (map[string]funda.Listing, error)
}

// GeoResolver resolves postal codes and travel times for addresses.
type GeoResolver interface {
	PostalCode(ctx context.Context, address string) (string, error)
	TravelTime(ctx context.Context, origin, destination string) (string, error)
}

// Store upserts houses into the record store.
type Store interface {
	Upsert(ctx context.Context, house model.House) (notion.Outcome, error)
}

// Summary tallies one run.
type Summary struct {
	Found   int
	Created int
	Skipped int
	Failed  int
}

// Collector wires the collaborators together. All dependencies are built
// once at process start and injected here; the collector itself holds no
// mutable state across runs.
type Collector struct {
	searcher Searcher
	geo      GeoResolver
	scores   *scores.Table
	store    Store

	officeS string
	officeV string
}

// New creates a Collector. officeS and officeV are the two fixed destination
// addresses travel times are computed against.
func New(searcher Searcher, geo GeoResolver, table *scores.Table, store Store, officeS, officeV string) *Collector {
	return &Collector{
		searcher: searcher,
		geo:      geo,
		scores:   table,
		store:    store,
		officeS:  officeS,
		officeV:  officeV,
	}
}

// Run searches every city in order, builds the enriched houses, reports how
// many were found, then uploads them one by one. A search or build failure
// aborts the run; a create failure is logged per house and counted, and the
// batch continues. A failed existence check also aborts: it means the store
// itself is unreachable, not that one house is bad.
func (c *Collector) Run(ctx context.Context, cities []string) (Summary, error) {
	log := zap.L().With(zap.String("component", "collector"))

	var houses []model.House
	for _, city := range cities {
		listings, err := c.searcher.Search(ctx, city)
		if err != nil {
			return Summary{}, eris.Wrapf(err, "collector: search %s", city)
		}
		log.Info("city searched", zap.String("city", city), zap.Int("listings", len(listings)))

		for id, listing := range listings {
			house, err := c.buildHouse(ctx, id, listing)
			if err != nil {
				return Summary{}, eris.Wrapf(err, "collector: build house %s", id)
			}
			houses = append(houses, house)
		}
	}

	summary := Summary{Found: len(houses)}
	log.Info("search complete", zap.Int("found", summary.Found))

	for _, house := range houses {
		outcome, err := c.store.Upsert(ctx, house)
		if err != nil && outcome != notion.OutcomeFailed {
			// The store could not even answer whether the house exists.
			// Continuing would tally every remaining house as failed against
			// a broken store, so stop here.
			return summary, eris.Wrapf(err, "collector: check house %s", house.ID)
		}
		switch outcome {
		case notion.OutcomeCreated:
			summary.Created++
			log.Info("house added", zap.String("id", house.ID))
		case notion.OutcomeSkipped:
			summary.Skipped++
			log.Info("house already exists", zap.String("id", house.ID))
		case notion.OutcomeFailed:
			summary.Failed++
			log.Error("house upload failed", zap.String("id", house.ID), zap.Error(err))
		}
	}

	return summary, nil
}

// buildHouse enriches a raw listing into a full house record: full address,
// postal code, both office travel times, and the life-level score.
func (c *Collector) buildHouse(ctx context.Context, id string, listing funda.Listing) (model.House, error) {
	address := model.NewAddress(listing.Address, listing.City)

	zipCode, err := c.geo.PostalCode(ctx, address.Full)
	if err != nil {
		return model.House{}, err
	}
	address.ZipCode = zipCode

	score, err := c.scores.Score(zipCode)
	if err != nil {
		if !eris.Is(err, scores.ErrScoreNotFound) {
			return model.House{}, err
		}
		// Resolved postal code with no dataset entry: a data gap, not a run
		// stopper. Score it neutral and make the gap visible.
		zap.L().Warn("no life level score for postal code",
			zap.String("id", id),
			zap.String("zip_code", zipCode),
		)
		score = 0
	}

	sTravelTime, err := c.geo.TravelTime(ctx, address.Full, c.officeS)
	if err != nil {
		return model.House{}, err
	}
	vTravelTime, err := c.geo.TravelTime(ctx, address.Full, c.officeV)
	if err != nil {
		return model.House{}, err
	}

	return model.House{
		ID:                id,
		URL:               listing.URL,
		Price:             listing.Price,
		Address:           address,
		SOfficeTravelTime: sTravelTime,
		VOfficeTravelTime: vTravelTime,
		LifeLevelScore:    score,
	}, nil
}
