package threat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/model"
)

var (
	ErrFeedRequest  = errors.New("leak feed request failed")
	ErrFeedResponse = errors.New("leak feed returned an error response")
)

const (
	feedPageSize = 200
	feedRetries  = 3
)

// Leak is one record from a leak feed. Identity and Password are set when
// the source delivers structured records; Raw carries the dump text
// otherwise.
type Leak struct {
	ID       string `json:"id"`
	Identity string `json:"identity"`
	Password string `json:"password"`
	Raw      string `json:"raw"`
	Details  string `json:"details"`
}

// Feed is the read surface of a leak source.
type Feed interface {
	LeaksSince(ctx context.Context, since *time.Time) ([]Leak, error)
}

// FeedFactory builds the Feed for a source row.
type FeedFactory func(source *model.ThreatSource) Feed

// KaduuFeed reads the Kaduu-style leak API configured on a source.
type KaduuFeed struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewKaduuFeed(source *model.ThreatSource) Feed {
	return &KaduuFeed{
		baseURL: source.APIBaseURL,
		token:   source.APIToken,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type leakPage struct {
	Items []Leak `json:"items"`
	Total int    `json:"total"`
}

func (f *KaduuFeed) LeaksSince(ctx context.Context, since *time.Time) ([]Leak, error) {
	var all []Leak

	offset := 0

	for {
		page, err := f.fetchPage(ctx, since, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)
		offset += feedPageSize

		if offset >= page.Total || len(page.Items) == 0 {
			break
		}
	}

	return all, nil
}

func (f *KaduuFeed) fetchPage(ctx context.Context, since *time.Time, offset int) (*leakPage, error) {
	query := url.Values{
		"limit":  {strconv.Itoa(feedPageSize)},
		"offset": {strconv.Itoa(offset)},
	}
	if since != nil {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}

	endpoint := fmt.Sprintf("%s/v1/leaks?%s", f.baseURL, query.Encode())

	retrier := retry.NewWithData[*leakPage](
		retry.Attempts(feedRetries),
		retry.Context(ctx),
	)

	return retrier.Do(func() (*leakPage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errs.Wrap(ErrFeedRequest, err)
		}

		req.Header.Set("Authorization", "Bearer "+f.token)
		req.Header.Set("Accept", "application/json")

		res, err := f.http.Do(req)
		if err != nil {
			return nil, errs.Wrap(ErrFeedRequest, err)
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return nil, errs.Wrapf(ErrFeedResponse, res.Status)
		}

		var page leakPage

		err = json.NewDecoder(res.Body).Decode(&page)
		if err != nil {
			return nil, errs.Wrap(ErrFeedRequest, err)
		}

		return &page, nil
	})
}
