package bank

import (
	"budget-bee-server/src/ledger"
	"budget-bee-server/src/models"
	"budget-bee-server/src/util"
	"time"

	"github.com/plaid/plaid-go/v41/plaid"
)

// ToEntries converts Plaid transactions into ledger entries. Plaid reports
// money leaving the account as a positive amount. Pending transactions and,
// when plaidAccountID is set, transactions of other accounts on the item are
// dropped.
func ToEntries(txs []plaid.Transaction, plaidAccountID *string) []ledger.Entry {
	entries := make([]ledger.Entry, 0, len(txs))
	for _, t := range txs {
		if t.GetPending() {
			continue
		}
		if plaidAccountID != nil && t.GetAccountId() != *plaidAccountID {
			continue
		}
		amount := util.FloatToMinorUnits(t.GetAmount())
		if amount == 0 {
			continue
		}

		typ := models.TransactionExpense
		if amount < 0 {
			typ = models.TransactionIncome
			amount = -amount
		}
		date, err := time.Parse(time.DateOnly, t.GetDate())
		if err != nil {
			date = time.Time{}
		}
		merchant := t.GetMerchantName()
		if merchant == "" {
			merchant = t.GetName()
		}
		externalID := t.GetTransactionId()

		entries = append(entries, ledger.Entry{
			Type:       typ,
			Amount:     amount,
			Date:       date,
			Merchant:   &merchant,
			ExternalID: &externalID,
		})
	}
	return entries
}
