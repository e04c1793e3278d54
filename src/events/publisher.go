// Package events announces committed ledger writes to other services.
package events

import "context"

type Publisher interface {
	PublishTransactionPosted(ctx context.Context, msg TransactionMessage) error
	PublishIncomeTriggered(ctx context.Context, msg TransactionMessage) error
}

// NoopPublisher drops every message. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransactionPosted(context.Context, TransactionMessage) error { return nil }
func (NoopPublisher) PublishIncomeTriggered(context.Context, TransactionMessage) error   { return nil }
