package collector

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundascout/fundascout/internal/model"
	"github.com/fundascout/fundascout/internal/scores"
	"github.com/fundascout/fundascout/pkg/funda"
	"github.com/fundascout/fundascout/pkg/maps"
	"github.com/fundascout/fundascout/pkg/notion"
)

// stubSearcher returns canned listings per city, or an error.
type stubSearcher struct {
	byCity map[string]map[string]funda.Listing
	err    error
}

func (s *stubSearcher) Search(_ context.Context, city string) (map[string]funda.Listing, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byCity[city], nil
}

// stubGeo resolves fixed values and records travel-time destinations.
type stubGeo struct {
	zipCode      string
	travelTimes  map[string]string // destination -> duration
	destinations []string
}

func (g *stubGeo) PostalCode(_ context.Context, _ string) (string, error) {
	return g.zipCode, nil
}

func (g *stubGeo) TravelTime(_ context.Context, _, destination string) (string, error) {
	g.destinations = append(g.destinations, destination)
	if d, ok := g.travelTimes[destination]; ok {
		return d, nil
	}
	return maps.TravelTimeNotFound, nil
}

// stubStore records upserts and returns scripted outcomes. A non-nil
// queryErr makes every upsert fail its existence check, like a store with a
// dead token.
type stubStore struct {
	outcomes map[string]notion.Outcome
	queryErr error
	upserted []model.House
}

func (s *stubStore) Upsert(_ context.Context, house model.House) (notion.Outcome, error) {
	if s.queryErr != nil {
		return "", s.queryErr
	}
	s.upserted = append(s.upserted, house)
	if outcome, ok := s.outcomes[house.ID]; ok {
		if outcome == notion.OutcomeFailed {
			return outcome, eris.New("create failed")
		}
		return outcome, nil
	}
	return notion.OutcomeCreated, nil
}

func scoreTable(t *testing.T, csv string) *scores.Table {
	t.Helper()
	table, err := scores.Load(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	return table
}

func TestRun_BuildsFullyEnrichedHouse(t *testing.T) {
	searcher := &stubSearcher{byCity: map[string]map[string]funda.Listing{
		"amstelveen": {
			"123": {
				URL:     "https://www.funda.nl/koop/amstelveen/huis-123-hoofdweg-10/",
				City:    "Amstelveen",
				Address: "Hoofdweg 10",
				Price:   400000,
			},
		},
	}}
	geo := &stubGeo{
		zipCode: "1182 CZ",
		travelTimes: map[string]string{
			"Office S": "42 mins",
			"Office V": "28 mins",
		},
	}
	store := &stubStore{}
	table := scoreTable(t, "jaar,PC4,afw\n2022,1182,6.5\n")

	c := New(searcher, geo, table, store, "Office S", "Office V")
	summary, err := c.Run(context.Background(), []string{"amstelveen"})
	require.NoError(t, err)

	assert.Equal(t, Summary{Found: 1, Created: 1}, summary)
	require.Len(t, store.upserted, 1)

	house := store.upserted[0]
	assert.Equal(t, "123", house.ID)
	assert.Equal(t, 400000, house.Price)
	assert.Equal(t, "Amstelveen", house.Address.City)
	assert.Equal(t, "Hoofdweg 10", house.Address.Short)
	assert.Equal(t, "Hoofdweg 10, Amstelveen, Netherlands", house.Address.Full)
	assert.Equal(t, "1182 CZ", house.Address.ZipCode)
	assert.Equal(t, "42 mins", house.SOfficeTravelTime)
	assert.Equal(t, "28 mins", house.VOfficeTravelTime)
	assert.Equal(t, 6.5, house.LifeLevelScore)

	assert.Equal(t, []string{"Office S", "Office V"}, geo.destinations)
}

func TestRun_GeocodingMissScoresZero(t *testing.T) {
	searcher := &stubSearcher{byCity: map[string]map[string]funda.Listing{
		"utrecht": {
			"9": {URL: "https://www.funda.nl/koop/utrecht/huis-9-kade-1/", City: "Utrecht", Address: "Kade 1", Price: 1},
		},
	}}
	geo := &stubGeo{zipCode: maps.ZipNotFound}
	store := &stubStore{}
	table := scoreTable(t, "jaar,PC4,afw\n2022,1182,6.5\n")

	c := New(searcher, geo, table, store, "Office S", "Office V")
	_, err := c.Run(context.Background(), []string{"utrecht"})
	require.NoError(t, err)

	require.Len(t, store.upserted, 1)
	assert.Equal(t, maps.ZipNotFound, store.upserted[0].Address.ZipCode)
	assert.Equal(t, 0.0, store.upserted[0].LifeLevelScore)
}

func TestRun_UnmappedPrefixDefaultsToZero(t *testing.T) {
	// Postal code resolved, but the dataset has no row for it: warn and
	// score neutral rather than abort.
	searcher := &stubSearcher{byCity: map[string]map[string]funda.Listing{
		"utrecht": {
			"9": {URL: "https://www.funda.nl/koop/utrecht/huis-9-kade-1/", City: "Utrecht", Address: "Kade 1", Price: 1},
		},
	}}
	geo := &stubGeo{zipCode: "9999 ZZ"}
	store := &stubStore{}
	table := scoreTable(t, "jaar,PC4,afw\n2022,1182,6.5\n")

	c := New(searcher, geo, table, store, "Office S", "Office V")
	summary, err := c.Run(context.Background(), []string{"utrecht"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0.0, store.upserted[0].LifeLevelScore)
}

func TestRun_SearchFailureAbortsRun(t *testing.T) {
	searcher := &stubSearcher{err: eris.New("funda: can't get house ID, address, or price from link x")}
	store := &stubStore{}
	table := scoreTable(t, "jaar,PC4,afw\n2022,1182,6.5\n")

	c := New(searcher, &stubGeo{zipCode: maps.ZipNotFound}, table, store, "S", "V")
	_, err := c.Run(context.Background(), []string{"amstelveen", "utrecht"})

	require.Error(t, err)
	assert.Empty(t, store.upserted)
}

func TestRun_UploadFailureDoesNotAbortBatch(t *testing.T) {
	searcher := &stubSearcher{byCity: map[string]map[string]funda.Listing{
		"utrecht": {
			"1": {URL: "https://www.funda.nl/koop/utrecht/huis-1-a-1/", City: "Utrecht", Address: "A 1", Price: 1},
			"2": {URL: "https://www.funda.nl/koop/utrecht/huis-2-b-2/", City: "Utrecht", Address: "B 2", Price: 2},
			"3": {URL: "https://www.funda.nl/koop/utrecht/huis-3-c-3/", City: "Utrecht", Address: "C 3", Price: 3},
		},
	}}
	store := &stubStore{outcomes: map[string]notion.Outcome{
		"1": notion.OutcomeFailed,
		"2": notion.OutcomeSkipped,
	}}
	table := scoreTable(t, "jaar,PC4,afw\n2022,1182,6.5\n")

	c := New(searcher, &stubGeo{zipCode: maps.ZipNotFound}, table, store, "S", "V")
	summary, err := c.Run(context.Background(), []string{"utrecht"})
	require.NoError(t, err)

	assert.Equal(t, Summary{Found: 3, Created: 1, Skipped: 1, Failed: 1}, summary)
	assert.Len(t, store.upserted, 3)
}

func TestRun_StoreQueryFailureAbortsBatch(t *testing.T) {
	// An existence check the store cannot answer is not a per-house failure:
	// the run must stop instead of tallying every house as failed.
	searcher := &stubSearcher{byCity: map[string]map[string]funda.Listing{
		"utrecht": {
			"1": {URL: "https://www.funda.nl/koop/utrecht/huis-1-a-1/", City: "Utrecht", Address: "A 1", Price: 1},
			"2": {URL: "https://www.funda.nl/koop/utrecht/huis-2-b-2/", City: "Utrecht", Address: "B 2", Price: 2},
		},
	}}
	store := &stubStore{queryErr: eris.New("API token is invalid")}
	table := scoreTable(t, "jaar,PC4,afw\n2022,1182,6.5\n")

	c := New(searcher, &stubGeo{zipCode: maps.ZipNotFound}, table, store, "S", "V")
	summary, err := c.Run(context.Background(), []string{"utrecht"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API token is invalid")
	assert.Zero(t, summary.Failed)
	assert.Empty(t, store.upserted)
}

func TestRun_CountsAcrossCities(t *testing.T) {
	searcher := &stubSearcher{byCity: map[string]map[string]funda.Listing{
		"amstelveen": {
			"1": {URL: "https://www.funda.nl/koop/amstelveen/huis-1-a-1/", City: "Amstelveen", Address: "A 1", Price: 1},
		},
		"utrecht": {
			"2": {URL: "https://www.funda.nl/koop/utrecht/huis-2-b-2/", City: "Utrecht", Address: "B 2", Price: 2},
		},
	}}
	store := &stubStore{}
	table := scoreTable(t, "jaar,PC4,afw\n2022,1182,6.5\n")

	c := New(searcher, &stubGeo{zipCode: maps.ZipNotFound}, table, store, "S", "V")
	summary, err := c.Run(context.Background(), []string{"amstelveen", "utrecht", "leegstad"})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 2, summary.Created)
}
