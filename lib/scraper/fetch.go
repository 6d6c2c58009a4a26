package scraper

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/carlmjohnson/requests"
)

const structuredDataXPath = `//script[@type='application/ld+json']`

// PageProduct is the normalized view of a page's structured-data block.
type PageProduct struct {
	ProductID string
	Name      string
	ImageURL  string
}

// ldProduct mirrors the retailer's ld+json block. Pages emit either a flat
// product record or the same record wrapped in a @graph list; both shapes
// occur in the wild and must be accepted.
type ldProduct struct {
	ProductID looseString `json:"productID"`
	Name      string      `json:"name"`
	Image     looseImage  `json:"image"`
	Graph     []ldProduct `json:"@graph"`
}

// looseString accepts a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = looseString(num.String())
	return nil
}

// looseImage accepts a single URL or a list of URLs, keeping the first.
type looseImage string

func (i *looseImage) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*i = looseImage(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	if len(many) > 0 {
		*i = looseImage(many[0])
	}
	return nil
}

// fetchPage GETs a product page and extracts its structured-data block.
func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (*PageProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	var markup string
	err := requests.URL(pageURL).
		Transport(s.transport).
		ToString(&markup).
		Fetch(ctx)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Reason: "unreadable markup", Err: err}
	}

	node := htmlquery.FindOne(doc, structuredDataXPath)
	if node == nil {
		return nil, &ParseError{URL: pageURL, Reason: "no ld+json script tag"}
	}

	var ld ldProduct
	if err := json.Unmarshal([]byte(htmlquery.InnerText(node)), &ld); err != nil {
		return nil, &ParseError{URL: pageURL, Reason: "ld+json is not valid JSON", Err: err}
	}
	return normalize(pageURL, &ld)
}

func normalize(pageURL string, ld *ldProduct) (*PageProduct, error) {
	record := ld
	if len(ld.Graph) > 0 {
		record = &ld.Graph[0]
	}
	if record.ProductID == "" {
		return nil, &ParseError{URL: pageURL, Reason: "ld+json block has no productID"}
	}
	return &PageProduct{
		ProductID: string(record.ProductID),
		Name:      record.Name,
		ImageURL:  string(record.Image),
	}, nil
}
