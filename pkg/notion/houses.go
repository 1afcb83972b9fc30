package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/fundascout/fundascout/internal/model"
)

// Outcome reports what an Upsert did.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// HouseStore persists houses into a Notion database keyed by "House ID".
// Upserts never update: an existing ID is left untouched.
type HouseStore struct {
	client     Client
	databaseID string
}

// NewHouseStore creates a HouseStore on the given database.
func NewHouseStore(client Client, databaseID string) *HouseStore {
	return &HouseStore{client: client, databaseID: databaseID}
}

// Exists reports whether a house with the given ID is already in the
// database. Query failures are hard failures: a broken store must not be
// mistaken for an empty one, or every house would be re-created.
func (s *HouseStore) Exists(ctx context.Context, houseID string) (bool, error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "House ID",
			// Notion applies rich_text conditions to title properties too.
			RichText: &notionapi.TextFilterCondition{
				Equals: houseID,
			},
		},
	}
	resp, err := s.client.QueryDatabase(ctx, s.databaseID, req)
	if err != nil {
		return false, eris.Wrapf(err, "notion: check house %s", houseID)
	}
	return len(resp.Results) > 0, nil
}

// Upsert inserts a house unless its ID already exists. A create failure is
// reported as OutcomeFailed with the collaborator's error attached; it does
// not abort processing of the remaining houses. An existence-check failure
// is different: the store's state is unknown, so the error comes back with
// no Outcome and the caller must stop the batch.
func (s *HouseStore) Upsert(ctx context.Context, house model.House) (Outcome, error) {
	exists, err := s.Exists(ctx, house.ID)
	if err != nil {
		return "", err
	}
	if exists {
		return OutcomeSkipped, nil
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.databaseID),
		},
		Properties: houseProperties(house),
	}
	if _, err := s.client.CreatePage(ctx, req); err != nil {
		return OutcomeFailed, eris.Wrapf(err, "notion: create house %s", house.ID)
	}
	return OutcomeCreated, nil
}

// houseProperties maps a house onto the database's property schema.
func houseProperties(house model.House) notionapi.Properties {
	return notionapi.Properties{
		"House ID": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(house.ID),
		},
		"URL": notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  house.URL,
		},
		"Post Address": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(house.Address.Full),
		},
		"City": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(house.Address.City),
		},
		"Price": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(house.Price),
		},
		"ZIP Code": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(house.Address.ZipCode),
		},
		"Time to office S.": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(house.SOfficeTravelTime),
		},
		"Time to office V.": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(house.VOfficeTravelTime),
		},
		"Life Level Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: house.LifeLevelScore,
		},
	}
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: content}},
	}
}
