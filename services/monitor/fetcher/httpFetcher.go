package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("fetcher")

type httpFetcher struct {
	client      *http.Client
	bearerToken string
}

// NewHTTPFetcher creates a new HTTP-based fetcher. A zero timeout means no timeout besides the one of the transport.
func NewHTTPFetcher(timeout time.Duration, bearerToken string) *httpFetcher {
	return &httpFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		bearerToken: bearerToken,
	}
}

// FetchRules queries the rules endpoint and reshapes the response into rules and alerts
func (f *httpFetcher) FetchRules(ctx context.Context, url string) (common.RulesSnapshot, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return common.RulesSnapshot{}, err
	}

	snapshot, err := ParseRules(body)
	if err != nil {
		return common.RulesSnapshot{}, withURL(err, url)
	}

	log.Trace("fetched rules", "url", url, "rules", len(snapshot.Rules), "alerts", len(snapshot.Alerts))

	return snapshot, nil
}

// FetchSilences queries the silences endpoint
func (f *httpFetcher) FetchSilences(ctx context.Context, url string) ([]common.Silence, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	silences, err := ParseSilences(body)
	if err != nil {
		return nil, withURL(err, url)
	}

	log.Trace("fetched silences", "url", url, "silences", len(silences))

	return silences, nil
}

// FetchIncidentSeries runs the incident range query
func (f *httpFetcher) FetchIncidentSeries(ctx context.Context, url string) ([]common.MetricRecord, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	records, err := ParseIncidentSeries(body)
	if err != nil {
		return nil, withURL(err, url)
	}

	log.Trace("fetched incident series", "url", url, "records", len(records))

	return records, nil
}

func (f *httpFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if len(f.bearerToken) > 0 {
		req.Header.Set("Authorization", "Bearer "+f.bearerToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{URL: url, Err: errStatusNotOK(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	return body, nil
}

func withURL(err error, url string) error {
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		malformed.URL = url
	}

	return err
}

// IsInterfaceNil returns true if the value under the interface is nil
func (f *httpFetcher) IsInterfaceNil() bool {
	return f == nil
}
