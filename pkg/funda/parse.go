package funda

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Extraction patterns for listing URLs and price blobs. Funda encodes the
// house ID, city and address in the listing URL path; the price arrives as a
// localized text blob with "." group separators.
var (
	idPattern      = regexp.MustCompile(`huis-(\d+)-`)
	cityPattern    = regexp.MustCompile(`(?:koop|huur)/([^/]+)/`)
	pricePattern   = regexp.MustCompile(`€\s*([\d.]+)`)
	addressPattern = regexp.MustCompile(`huis-\d+-(.+?)/`)
)

// SlugToTitle converts a hyphen-separated URL slug to a display title: each
// hyphen segment is capitalized independently and segments are joined with
// spaces. "den-haag" becomes "Den Haag".
func SlugToTitle(slug string) string {
	caser := cases.Title(language.Und)
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		parts[i] = caser.String(part)
	}
	return strings.Join(parts, " ")
}

// ParseRow extracts the house ID and listing fields from a result row's URL
// and price blob. A row missing the ID, price or address is a hard failure:
// it signals an upstream markup change that must not silently under-report
// listings.
func ParseRow(listingURL, priceBlob string) (string, Listing, error) {
	idMatch := idPattern.FindStringSubmatch(listingURL)
	cityMatch := cityPattern.FindStringSubmatch(listingURL)
	addressMatch := addressPattern.FindStringSubmatch(listingURL)
	priceMatch := pricePattern.FindStringSubmatch(priceBlob)

	if idMatch == nil || priceMatch == nil || addressMatch == nil {
		return "", Listing{}, eris.Errorf("funda: can't get house ID, address, or price from link %s", listingURL)
	}

	price, err := strconv.Atoi(strings.ReplaceAll(priceMatch[1], ".", ""))
	if err != nil {
		return "", Listing{}, eris.Wrapf(err, "funda: parse price from link %s", listingURL)
	}

	listing := Listing{
		URL:   listingURL,
		Price: price,
	}
	if cityMatch != nil {
		listing.City = SlugToTitle(cityMatch[1])
	}
	listing.Address = SlugToTitle(addressMatch[1])

	return idMatch[1], listing, nil
}
