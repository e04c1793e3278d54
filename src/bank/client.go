// Package bank links external bank accounts through Plaid and turns their
// transaction feed into ledger entries.
package bank

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/plaid/plaid-go/v41/plaid"
)

const clientName = "Budget Bee"

type Client struct {
	api *plaid.APIClient
}

func NewClient(clientID, secret, env string) (*Client, error) {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	switch env {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		return nil, fmt.Errorf("invalid Plaid environment: %s", env)
	}

	return &Client{api: plaid.NewAPIClient(configuration)}, nil
}

func (c *Client) CreateLinkToken(ctx context.Context, userID uuid.UUID) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: userID.String(),
	}
	request := plaid.NewLinkTokenCreateRequest(
		clientName,
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
	)
	request.SetUser(user)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})
	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", fmt.Errorf("create link token: %w", err)
	}
	return resp.GetLinkToken(), nil
}

type Item struct {
	ItemID          string
	AccessToken     string
	InstitutionName *string
}

// Exchange trades a Link public token for a long-lived access token.
func (c *Client) Exchange(ctx context.Context, publicToken string) (*Item, error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("exchange public token: %w", err)
	}
	item := &Item{ItemID: resp.GetItemId(), AccessToken: resp.GetAccessToken()}

	// Institution details are optional; a failed lookup does not fail the link.
	itemResp, _, err := c.api.PlaidApi.ItemGet(ctx).ItemGetRequest(*plaid.NewItemGetRequest(item.AccessToken)).Execute()
	if err == nil {
		if name, ok := itemResp.GetItem().AdditionalProperties["institution_name"].(string); ok && name != "" {
			item.InstitutionName = &name
		}
	}
	return item, nil
}

// Sync pages through TransactionsSync from cursor and returns every added
// transaction plus the cursor to resume from.
func (c *Client) Sync(ctx context.Context, accessToken, cursor string) ([]plaid.Transaction, string, error) {
	var added []plaid.Transaction
	for {
		request := plaid.NewTransactionsSyncRequest(accessToken)
		if cursor != "" {
			request.SetCursor(cursor)
		}
		resp, _, err := c.api.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
		if err != nil {
			return nil, "", fmt.Errorf("sync transactions: %w", err)
		}
		added = append(added, resp.GetAdded()...)
		cursor = resp.GetNextCursor()
		if !resp.GetHasMore() {
			return added, cursor, nil
		}
	}
}

func (c *Client) RemoveItem(ctx context.Context, accessToken string) error {
	_, _, err := c.api.PlaidApi.ItemRemove(ctx).ItemRemoveRequest(*plaid.NewItemRemoveRequest(accessToken)).Execute()
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	return nil
}
