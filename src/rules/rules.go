// Package rules matches transactions against user defined categorisation rules.
package rules

import (
	"budget-bee-server/src/models"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	fields = map[string]bool{"merchant": true, "note": true, "amount": true, "account": true, "type": true}
	ops    = map[string]bool{"equals": true, "contains": true, "gte": true, "lte": true, "gt": true, "lt": true, "in": true}
)

// Parse decodes and validates a rule's JSON condition tree.
func Parse(raw json.RawMessage) (models.Condition, error) {
	var cond models.Condition
	if err := json.Unmarshal(raw, &cond); err != nil {
		return cond, fmt.Errorf("invalid conditions: %w", err)
	}
	return cond, Validate(cond)
}

func Validate(cond models.Condition) error {
	if len(cond.And) > 0 && len(cond.Or) > 0 {
		return fmt.Errorf("condition cannot mix and/or")
	}
	for _, c := range append(cond.And, cond.Or...) {
		if err := Validate(c); err != nil {
			return err
		}
	}
	if len(cond.And) > 0 || len(cond.Or) > 0 {
		return nil
	}
	if !fields[cond.Field] {
		return fmt.Errorf("unknown field %q", cond.Field)
	}
	if !ops[cond.Op] {
		return fmt.Errorf("unknown op %q", cond.Op)
	}
	return nil
}

// Match evaluates cond against one transaction.
func Match(cond models.Condition, c models.RuleCandidate) bool {
	if len(cond.And) > 0 {
		for _, sub := range cond.And {
			if !Match(sub, c) {
				return false
			}
		}
		return true
	}
	if len(cond.Or) > 0 {
		for _, sub := range cond.Or {
			if Match(sub, c) {
				return true
			}
		}
		return false
	}

	var fieldValue any
	switch cond.Field {
	case "merchant":
		fieldValue = deref(c.Merchant)
	case "note":
		fieldValue = deref(c.Note)
	case "account":
		fieldValue = c.AccountName
	case "type":
		fieldValue = string(c.Type)
	case "amount":
		fieldValue = float64(c.Amount)
	default:
		return false
	}

	switch cond.Op {
	case "equals":
		switch v := fieldValue.(type) {
		case string:
			val, ok := cond.Value.(string)
			return ok && strings.EqualFold(v, val)
		case float64:
			val, ok := cond.Value.(float64)
			return ok && v == val
		}
		return false
	case "contains":
		s, ok := fieldValue.(string)
		val, ok2 := cond.Value.(string)
		return ok && ok2 && strings.Contains(strings.ToLower(s), strings.ToLower(val))
	case "gte", "lte", "gt", "lt":
		f, ok := fieldValue.(float64)
		val, ok2 := cond.Value.(float64)
		if !ok || !ok2 {
			return false
		}
		switch cond.Op {
		case "gte":
			return f >= val
		case "lte":
			return f <= val
		case "gt":
			return f > val
		}
		return f < val
	case "in":
		s, ok := fieldValue.(string)
		arr, ok2 := cond.Value.([]any)
		if !ok || !ok2 {
			return false
		}
		for _, v := range arr {
			if str, ok := v.(string); ok && strings.EqualFold(s, str) {
				return true
			}
		}
	}
	return false
}

// Set is a user's rules, parsed once, in priority order.
type Set struct {
	rules []compiled
}

type compiled struct {
	cond     models.Condition
	category uuid.UUID
}

// Compile parses rs. Rules whose conditions fail to parse are skipped.
func Compile(rs []models.TransactionRule) *Set {
	set := &Set{rules: make([]compiled, 0, len(rs))}
	for _, r := range rs {
		cond, err := Parse(r.Conditions)
		if err != nil {
			continue
		}
		set.rules = append(set.rules, compiled{cond, r.CategoryID})
	}
	return set
}

// CategoryFor returns the category of the first rule matching c.
func (s *Set) CategoryFor(c models.RuleCandidate) (uuid.UUID, bool) {
	for _, r := range s.rules {
		if Match(r.cond, c) {
			return r.category, true
		}
	}
	return uuid.Nil, false
}

// Change is a recategorisation produced by Apply.
type Change struct {
	TransactionID uuid.UUID
	From          uuid.UUID
	To            uuid.UUID
}

// Apply runs rs over candidates. Transactions already in the category of
// their first matching rule produce no change.
func Apply(rs []models.TransactionRule, candidates []models.RuleCandidate) []Change {
	set := Compile(rs)
	var changes []Change
	for _, c := range candidates {
		to, ok := set.CategoryFor(c)
		if ok && to != c.CategoryID {
			changes = append(changes, Change{TransactionID: c.ID, From: c.CategoryID, To: to})
		}
	}
	return changes
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
