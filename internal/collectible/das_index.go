package collectible

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
)

const (
	dasPageLimit      = 1000
	defaultHTTPTimout = 30 * time.Second
	maxResponseBytes  = 16 << 20
)

// DASIndex queries asset ownership through the Metaplex DAS getAssetsByOwner
// JSON-RPC extension. Most RPC providers expose it on the same endpoint as
// the standard Solana RPC methods.
type DASIndex struct {
	endpoint string
	client   *http.Client
}

func NewDASIndex(endpoint string, client *http.Client) (*DASIndex, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: missing endpoint", ErrInvalidConfig)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimout}
	}
	return &DASIndex{endpoint: endpoint, client: client}, nil
}

type dasRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Method  string    `json:"method"`
	Params  dasParams `json:"params"`
}

type dasParams struct {
	OwnerAddress string `json:"ownerAddress"`
	Page         int    `json:"page"`
	Limit        int    `json:"limit"`
}

type dasResponse struct {
	Result *dasResult `json:"result"`
	Error  *dasError  `json:"error"`
}

type dasError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type dasResult struct {
	Total int        `json:"total"`
	Items []dasAsset `json:"items"`
}

type dasAsset struct {
	ID      string `json:"id"`
	Content struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
	} `json:"content"`
	Ownership struct {
		Owner string `json:"owner"`
	} `json:"ownership"`
	Grouping []struct {
		GroupKey   string `json:"group_key"`
		GroupValue string `json:"group_value"`
	} `json:"grouping"`
	Authorities []struct {
		Address string `json:"address"`
	} `json:"authorities"`
}

func (d *DASIndex) AssetsByOwner(ctx context.Context, owner solana.PublicKey) ([]Asset, error) {
	var out []Asset
	for page := 1; ; page++ {
		res, err := d.fetchPage(ctx, owner, page)
		if err != nil {
			return nil, err
		}
		for _, item := range res.Items {
			asset, err := toAsset(item)
			if err != nil {
				return nil, err
			}
			out = append(out, asset)
		}
		if len(res.Items) < dasPageLimit {
			return out, nil
		}
	}
}

func (d *DASIndex) fetchPage(ctx context.Context, owner solana.PublicKey, page int) (dasResult, error) {
	body, err := json.Marshal(dasRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getAssetsByOwner",
		Params: dasParams{
			OwnerAddress: owner.String(),
			Page:         page,
			Limit:        dasPageLimit,
		},
	})
	if err != nil {
		return dasResult{}, fmt.Errorf("collectible: marshal das request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return dasResult{}, fmt.Errorf("collectible: build das request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return dasResult{}, fmt.Errorf("collectible: das request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return dasResult{}, fmt.Errorf("collectible: read das response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return dasResult{}, fmt.Errorf("collectible: das status %d", resp.StatusCode)
	}

	var decoded dasResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return dasResult{}, fmt.Errorf("collectible: decode das response: %w", err)
	}
	if decoded.Error != nil {
		return dasResult{}, fmt.Errorf("collectible: das error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	if decoded.Result == nil {
		return dasResult{}, fmt.Errorf("collectible: das response missing result")
	}
	return *decoded.Result, nil
}

func toAsset(item dasAsset) (Asset, error) {
	addr, err := solana.PublicKeyFromBase58(item.ID)
	if err != nil {
		return Asset{}, fmt.Errorf("collectible: invalid asset id %q: %w", item.ID, err)
	}
	owner, err := solana.PublicKeyFromBase58(item.Ownership.Owner)
	if err != nil {
		return Asset{}, fmt.Errorf("collectible: invalid asset owner %q: %w", item.Ownership.Owner, err)
	}

	asset := Asset{
		Address: addr,
		Name:    item.Content.Metadata.Name,
		Owner:   owner,
	}
	// Collection members report the collection as update authority via the
	// grouping list; standalone assets only carry an authorities entry.
	for _, g := range item.Grouping {
		if g.GroupKey == "collection" {
			ua, err := solana.PublicKeyFromBase58(g.GroupValue)
			if err != nil {
				return Asset{}, fmt.Errorf("collectible: invalid collection %q: %w", g.GroupValue, err)
			}
			asset.UpdateAuthority = ua
			return asset, nil
		}
	}
	if len(item.Authorities) > 0 {
		ua, err := solana.PublicKeyFromBase58(item.Authorities[0].Address)
		if err != nil {
			return Asset{}, fmt.Errorf("collectible: invalid authority %q: %w", item.Authorities[0].Address, err)
		}
		asset.UpdateAuthority = ua
	}
	return asset, nil
}
