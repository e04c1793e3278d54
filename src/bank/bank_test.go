package bank

import (
	"budget-bee-server/src/models"
	"testing"
	"time"

	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plaidTx(id, account string, amount float64, merchant string, pending bool) plaid.Transaction {
	var t plaid.Transaction
	t.SetTransactionId(id)
	t.SetAccountId(account)
	t.SetAmount(amount)
	t.SetDate("2024-03-05")
	t.SetName("POS " + merchant)
	t.SetMerchantName(merchant)
	t.SetPending(pending)
	return t
}

func TestToEntries(t *testing.T) {
	checking := "acc-checking"
	txs := []plaid.Transaction{
		plaidTx("t1", checking, 12.5, "Cafe", false),
		plaidTx("t2", checking, -1500, "Employer", false),
		plaidTx("t3", checking, 3, "Pending shop", true),
		plaidTx("t4", "acc-savings", 40, "Other account", false),
		plaidTx("t5", checking, 0, "Zero", false),
	}

	entries := ToEntries(txs, &checking)
	require.Len(t, entries, 2)

	assert.Equal(t, models.TransactionExpense, entries[0].Type)
	assert.Equal(t, int64(1250), entries[0].Amount)
	assert.Equal(t, "Cafe", *entries[0].Merchant)
	assert.Equal(t, "t1", *entries[0].ExternalID)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), entries[0].Date)

	assert.Equal(t, models.TransactionIncome, entries[1].Type)
	assert.Equal(t, int64(150000), entries[1].Amount)

	assert.Len(t, ToEntries(txs, nil), 3)
}

func TestWebhookEventNeedsSync(t *testing.T) {
	assert.True(t, WebhookEvent{WebhookType: "TRANSACTIONS", WebhookCode: "SYNC_UPDATES_AVAILABLE"}.NeedsSync())
	assert.False(t, WebhookEvent{WebhookType: "ITEM", WebhookCode: "ERROR"}.NeedsSync())
}

func TestGetHeaderCI(t *testing.T) {
	h := map[string]string{"plaid-verification": "token"}
	assert.Equal(t, "token", getHeaderCI(h, "Plaid-Verification"))
	assert.Empty(t, getHeaderCI(h, "Other"))
}

func TestJWKRejectsUnsupportedKeys(t *testing.T) {
	_, err := jwkToECDSAPublicKey(nil)
	assert.Error(t, err)
	_, err = jwkToECDSAPublicKey(&plaid.JWKPublicKey{Kty: "RSA", Crv: "P-256", X: "a", Y: "b"})
	assert.Error(t, err)
}

func TestNewClientRejectsUnknownEnv(t *testing.T) {
	_, err := NewClient("id", "secret", "staging")
	assert.Error(t, err)

	c, err := NewClient("id", "secret", "sandbox")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
