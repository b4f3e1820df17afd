package withdraw

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
)

// NowPaymentsProvider is the thin client for the payout side of the crypto
// gateway. The pipeline only ever calls CreatePayout once per request and
// polls PayoutStatus until it sees a terminal state.
type NowPaymentsProvider struct {
	baseURL string
	apiKey  string
	client  *fasthttp.Client
}

func NewNowPaymentsProvider(baseURL, apiKey string) *NowPaymentsProvider {
	return &NowPaymentsProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &fasthttp.Client{
			ReadTimeout:  8 * time.Second,
			WriteTimeout: 8 * time.Second,
		},
	}
}

func (p *NowPaymentsProvider) do(method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseResponse(resp)
		fasthttp.ReleaseRequest(req)
	}()

	req.SetRequestURI(p.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("x-api-key", p.apiKey)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if err := p.client.Do(req, resp); err != nil {
		return nil, fmt.Errorf("payment provider: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("payment provider: status %d", resp.StatusCode())
	}
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

func (p *NowPaymentsProvider) CreatePayout(ctx context.Context, asset, address string, amount decimal.Decimal) (string, error) {
	body, err := json.Marshal(map[string]any{
		"currency": asset,
		"address":  address,
		"amount":   amount.String(),
	})
	if err != nil {
		return "", err
	}

	raw, err := p.do(fasthttp.MethodPost, "/v1/payout", body)
	if err != nil {
		return "", err
	}

	var res struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("decode payout response: %w", err)
	}
	return res.ID, nil
}

func (p *NowPaymentsProvider) PayoutStatus(ctx context.Context, ref string) (PayoutState, error) {
	raw, err := p.do(fasthttp.MethodGet, "/v1/payout/"+ref, nil)
	if err != nil {
		return "", err
	}

	var res struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("decode payout status: %w", err)
	}

	switch res.Status {
	case "finished", "confirmed":
		return PayoutFinished, nil
	case "failed", "rejected", "expired":
		return PayoutFailed, nil
	default:
		return PayoutProcessing, nil
	}
}
