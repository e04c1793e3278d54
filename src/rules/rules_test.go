package rules

import (
	"budget-bee-server/src/models"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(merchant string, amount int64, account string) models.RuleCandidate {
	return models.RuleCandidate{
		Transaction: models.Transaction{
			ID:         uuid.New(),
			Type:       models.TransactionExpense,
			Amount:     amount,
			CategoryID: uuid.New(),
			Merchant:   &merchant,
		},
		AccountName: account,
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse(json.RawMessage(`{"field":"colour","op":"equals","value":"red"}`))
	assert.Error(t, err)

	_, err = Parse(json.RawMessage(`{"and":[{"field":"merchant","op":"like","value":"x"}]}`))
	assert.Error(t, err)

	_, err = Parse(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestMatchLeafOps(t *testing.T) {
	c := candidate("Coffee Corner", 450, "Wallet")

	tests := []struct {
		name string
		cond string
		want bool
	}{
		{"contains is case insensitive", `{"field":"merchant","op":"contains","value":"coffee"}`, true},
		{"equals string", `{"field":"account","op":"equals","value":"wallet"}`, true},
		{"equals number", `{"field":"amount","op":"equals","value":450}`, true},
		{"gt", `{"field":"amount","op":"gt","value":500}`, false},
		{"lte", `{"field":"amount","op":"lte","value":450}`, true},
		{"in", `{"field":"merchant","op":"in","value":["Bakery","coffee corner"]}`, true},
		{"type mismatch", `{"field":"amount","op":"contains","value":"4"}`, false},
		{"missing note is empty", `{"field":"note","op":"equals","value":""}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := Parse(json.RawMessage(tt.cond))
			require.NoError(t, err)
			assert.Equal(t, tt.want, Match(cond, c))
		})
	}
}

func TestMatchGroups(t *testing.T) {
	c := candidate("Uber Eats", 2000, "Card")

	and, err := Parse(json.RawMessage(`{"and":[
		{"field":"merchant","op":"contains","value":"uber"},
		{"field":"amount","op":"gte","value":1000}
	]}`))
	require.NoError(t, err)
	assert.True(t, Match(and, c))

	or, err := Parse(json.RawMessage(`{"or":[
		{"field":"merchant","op":"equals","value":"lyft"},
		{"field":"account","op":"equals","value":"cash"}
	]}`))
	require.NoError(t, err)
	assert.False(t, Match(or, c))
}

func TestApplyFirstMatchWins(t *testing.T) {
	food := uuid.New()
	transport := uuid.New()
	rs := []models.TransactionRule{
		{Name: "broken", Conditions: json.RawMessage(`{`), CategoryID: transport},
		{Name: "uber eats", Conditions: json.RawMessage(`{"field":"merchant","op":"contains","value":"eats"}`), CategoryID: food},
		{Name: "uber", Conditions: json.RawMessage(`{"field":"merchant","op":"contains","value":"uber"}`), CategoryID: transport},
	}

	eats := candidate("Uber Eats", 1500, "Card")
	ride := candidate("Uber", 900, "Card")
	already := candidate("Uber", 900, "Card")
	already.CategoryID = transport
	other := candidate("Grocer", 900, "Card")

	changes := Apply(rs, []models.RuleCandidate{eats, ride, already, other})
	require.Len(t, changes, 2)
	assert.Equal(t, Change{TransactionID: eats.ID, From: eats.CategoryID, To: food}, changes[0])
	assert.Equal(t, ride.ID, changes[1].TransactionID)
	assert.Equal(t, transport, changes[1].To)
}

func TestSetCategoryFor(t *testing.T) {
	pets := uuid.New()
	set := Compile([]models.TransactionRule{
		{Conditions: json.RawMessage(`{"field":"merchant","op":"contains","value":"pet"}`), CategoryID: pets},
	})

	got, ok := set.CategoryFor(candidate("PetSmart", 100, "Card"))
	assert.True(t, ok)
	assert.Equal(t, pets, got)

	_, ok = set.CategoryFor(candidate("Grocer", 100, "Card"))
	assert.False(t, ok)
}
