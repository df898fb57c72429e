package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	laberrors "github.com/seravalle/locklab/errors"
)

// HTTP implements Counter and Claimable against the demo service's API, so
// harness scenarios can run over a real network hop.
type HTTP struct {
	base string
	hc   *http.Client
}

// NewHTTP returns a resource client for the demo service at base, e.g.
// "http://localhost:8080".
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTP{base: base, hc: client}
}

type kvResponse struct {
	Key   string `json:"key"`
	Value int64  `json:"value"`
}

type reserveResponse struct {
	Room       string `json:"room"`
	ReservedBy string `json:"reserved_by"`
}

// ReadState implements Counter.ReadState via GET /api/kv/:key.
func (r *HTTP) ReadState(ctx context.Context, id string) (int64, error) {
	resp, err := r.get(ctx, "/api/kv/"+url.PathEscape(id))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: kv read returned %d", laberrors.ErrStoreUnavailable, resp.StatusCode)
	}
	var body kvResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.Value, nil
}

// WriteState implements Counter.WriteState via POST /api/kv/:key.
func (r *HTTP) WriteState(ctx context.Context, id string, value int64) error {
	resp, err := r.post(ctx, "/api/kv/"+url.PathEscape(id)+"?value="+strconv.FormatInt(value, 10))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: kv write returned %d", laberrors.ErrStoreUnavailable, resp.StatusCode)
	}
	return nil
}

// TryClaim implements Claimable.TryClaim via POST /api/reserve/:room. A 409
// is the expected loser outcome, not an error.
func (r *HTTP) TryClaim(ctx context.Context, id, claimant string) (bool, error) {
	resp, err := r.post(ctx, "/api/reserve/"+url.PathEscape(id)+"?user_id="+url.QueryEscape(claimant))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusConflict:
		return false, nil
	default:
		return false, fmt.Errorf("%w: reserve returned %d", laberrors.ErrStoreUnavailable, resp.StatusCode)
	}
}

// ClaimantOf implements Claimable.ClaimantOf via GET /api/reserve/:room.
func (r *HTTP) ClaimantOf(ctx context.Context, id string) (string, bool, error) {
	resp, err := r.get(ctx, "/api/reserve/"+url.PathEscape(id))
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("%w: reservation read returned %d", laberrors.ErrStoreUnavailable, resp.StatusCode)
	}
	var body reserveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, err
	}
	return body.ReservedBy, true, nil
}

func (r *HTTP) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", laberrors.ErrStoreUnavailable, err)
	}
	return resp, nil
}

func (r *HTTP) post(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", laberrors.ErrStoreUnavailable, err)
	}
	return resp, nil
}
