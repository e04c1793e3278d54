// Package statement reads downloaded bank statements (OFX/QFX) into ledger
// entries.
package statement

import (
	"budget-bee-server/src/ledger"
	"budget-bee-server/src/models"
	"budget-bee-server/src/util"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
)

var (
	ErrEmpty = errors.New("statement has no transactions")

	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocess fixes formatting quirks some banks emit that ofxgo rejects.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// Parse reads every bank and credit card statement in r. A negative TRNAMT
// is money leaving the account and becomes an EXPENSE. FITID is kept as the
// external id so re-importing the same file posts nothing twice.
func Parse(r io.Reader) ([]ledger.Entry, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("parse statement: %w", err)
	}

	var txs []ofxgo.Transaction
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			txs = append(txs, stmt.BankTranList.Transactions...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			txs = append(txs, stmt.BankTranList.Transactions...)
		}
	}

	entries := make([]ledger.Entry, 0, len(txs))
	for _, tx := range txs {
		entry, err := toEntry(tx)
		if err != nil {
			log.Printf("ERROR: Skipping statement transaction %s: %v", tx.FiTID, err)
			continue
		}
		if entry.Amount == 0 {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	return entries, nil
}

func toEntry(tx ofxgo.Transaction) (ledger.Entry, error) {
	amount, err := util.RatToMinorUnits(&tx.TrnAmt.Rat)
	if err != nil {
		return ledger.Entry{}, err
	}
	typ := models.TransactionIncome
	if amount < 0 {
		typ = models.TransactionExpense
		amount = -amount
	}

	entry := ledger.Entry{
		Type:   typ,
		Amount: amount,
		Date:   tx.DtPosted.Time,
	}
	if merchant := merchantName(tx); merchant != "" {
		entry.Merchant = &merchant
	}
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" {
		entry.Note = &memo
	}
	if fitID := string(tx.FiTID); fitID != "" {
		entry.ExternalID = &fitID
	}
	return entry, nil
}

func merchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	return strings.TrimSpace(string(tx.Name))
}
