package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/avast/retry-go/v5"
	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/errs"
)

var (
	ErrLoadingToken   = errors.New("error loading registry token")
	ErrRequestFailed  = errors.New("registry request failed")
	ErrServerResponse = errors.New("registry returned an error response")
)

const defaultRetries = 3

// Organization is the upstream representation of one organization with its
// members.
type Organization struct {
	ID      int64             `json:"id"`
	Names   map[string]string `json:"names"`
	Persons []Person          `json:"persons"`
}

type Person struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Employed bool   `json:"employed"`
}

type page struct {
	Items []Organization `json:"items"`
	Total int            `json:"total"`
}

// Client reads the organization registry over its paged JSON API.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	http     *http.Client
}

func NewClient(cfg config.Registry) (*Client, error) {
	token, err := commoncfg.LoadValueFromSourceRef(cfg.Token)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingToken, err)
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		token:    string(token),
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Organizations fetches every organization, page by page.
func (c *Client) Organizations(ctx context.Context) ([]Organization, error) {
	var all []Organization

	offset := 0

	for {
		p, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, p.Items...)
		offset += c.pageSize

		if offset >= p.Total || len(p.Items) == 0 {
			break
		}
	}

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) (*page, error) {
	endpoint := fmt.Sprintf("%s/v1/organizations?%s", c.baseURL, url.Values{
		"limit":  {strconv.Itoa(c.pageSize)},
		"offset": {strconv.Itoa(offset)},
	}.Encode())

	retrier := retry.NewWithData[*page](
		retry.Attempts(defaultRetries),
		retry.Context(ctx),
	)

	return retrier.Do(func() (*page, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errs.Wrap(ErrRequestFailed, err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")

		res, err := c.http.Do(req)
		if err != nil {
			return nil, errs.Wrap(ErrRequestFailed, err)
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return nil, errs.Wrapf(ErrServerResponse, res.Status)
		}

		var p page

		err = json.NewDecoder(res.Body).Decode(&p)
		if err != nil {
			return nil, errs.Wrap(ErrRequestFailed, err)
		}

		return &p, nil
	})
}
