package models

// Condition is one node of a transaction rule. A node is either a leaf
// comparison (Field, Op, Value) or a group joined by And / Or.
type Condition struct {
	Field string      `json:"field,omitempty"`
	Op    string      `json:"op,omitempty"`
	Value any         `json:"value,omitempty"`
	And   []Condition `json:"and,omitempty"`
	Or    []Condition `json:"or,omitempty"`
}
