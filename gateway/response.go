package gateway

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/eringen/blogfront/domain"
)

// listingBody is the tagged union of the two shapes GET /posts/ answers with:
// a bare array from legacy, non-paginated servers, or a paginated envelope.
// Exactly one field is set.
type listingBody struct {
	array    []domain.BlogPost
	envelope *domain.PaginatedResponse
}

var errUnknownListingShape = errors.New("listing is neither an array nor a paginated envelope")

func decodeListing(body []byte) (listingBody, error) {
	if !gjson.ValidBytes(body) {
		return listingBody{}, errors.New("listing is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	switch {
	case root.IsArray():
		items := []domain.BlogPost{}
		if err := json.Unmarshal(body, &items); err != nil {
			return listingBody{}, err
		}
		return listingBody{array: items}, nil
	case root.IsObject() && root.Get("items").IsArray():
		var env domain.PaginatedResponse
		if err := json.Unmarshal(body, &env); err != nil {
			return listingBody{}, err
		}
		return listingBody{envelope: &env}, nil
	}
	return listingBody{}, errUnknownListingShape
}

// normalize collapses either shape into a PostPage. A bare array is one page.
func (l listingBody) normalize() domain.PostPage {
	if l.envelope == nil {
		return domain.PostPage{
			Items:      l.array,
			Total:      len(l.array),
			Page:       1,
			TotalPages: 1,
		}
	}
	env := l.envelope
	pages := env.Pages
	if pages < 0 {
		pages = 0
	}
	page := env.Page
	if page < 1 {
		page = 1
	}
	return domain.PostPage{
		Items:      env.Items,
		Total:      env.Total,
		Page:       page,
		TotalPages: pages,
	}
}
