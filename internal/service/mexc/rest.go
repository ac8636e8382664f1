package mexc

import (
	"context"
	"fmt"

	drepo "PumpScope/internal/domain/repository"
	xhttp "PumpScope/pkg/http"
)

// ContractClient lists tradable contracts from the MEXC REST API.
type ContractClient struct {
	baseURL string
	client  *xhttp.Client
}

// NewContractClient creates a SymbolCatalog backed by the contract detail
// endpoint.
func NewContractClient(baseURL string, client *xhttp.Client) drepo.SymbolCatalog {
	return &ContractClient{baseURL: baseURL, client: client}
}

type contractDetail struct {
	Symbol string `json:"symbol"`
	State  int    `json:"state"`
}

type contractDetailResponse struct {
	Success bool             `json:"success"`
	Code    int              `json:"code"`
	Data    []contractDetail `json:"data"`
}

// ActiveSymbols returns symbols of contracts currently enabled for trading.
func (c *ContractClient) ActiveSymbols(ctx context.Context) ([]string, error) {
	var resp contractDetailResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v1/contract/detail",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("contract detail: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("contract detail: api code %d", resp.Code)
	}

	symbols := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		// state 0 means the contract is live
		if d.State == 0 {
			symbols = append(symbols, d.Symbol)
		}
	}
	return symbols, nil
}
