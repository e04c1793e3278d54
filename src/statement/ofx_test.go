package statement

import (
	"budget-bee-server/src/models"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
<MEMO>Morning coffee
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240131120000[0:GMT]
<TRNAMT>2100.00
<FITID>2024013101
<NAME>ACME PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseBankStatement(t *testing.T) {
	entries, err := Parse(strings.NewReader(bankOFX))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	coffee := entries[0]
	assert.Equal(t, models.TransactionExpense, coffee.Type)
	assert.Equal(t, int64(2550), coffee.Amount)
	assert.Equal(t, "STARBUCKS STORE #1234", *coffee.Merchant)
	assert.Equal(t, "Morning coffee", *coffee.Note)
	assert.Equal(t, "2024011501", *coffee.ExternalID)
	assert.True(t, coffee.Date.Equal(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)))

	pay := entries[1]
	assert.Equal(t, models.TransactionIncome, pay.Type)
	assert.Equal(t, int64(210000), pay.Amount)
	assert.Nil(t, pay.Note)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("not valid OFX"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestPreprocess(t *testing.T) {
	in := "\n\n<SEVERITY>Info</SEVERITY>\n<CODE\n"
	out := preprocess(in)
	assert.True(t, strings.HasPrefix(out, "<SEVERITY>INFO</SEVERITY>"))
	assert.Contains(t, out, "<CODE>")
}
