package ledger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type SweepReport struct {
	AsOf         time.Time           `json:"as_of"`
	Users        int                 `json:"users"`
	Transactions int                 `json:"transactions"`
	Failed       map[uuid.UUID]error `json:"-"`
}

// FailedUsers lists the users whose batch rolled back, as strings for output.
func (r SweepReport) FailedUsers() map[string]string {
	out := make(map[string]string, len(r.Failed))
	for id, err := range r.Failed {
		out[id.String()] = err.Error()
	}
	return out
}

// SweepDueIncome triggers due income for every user that has some. Each user
// is its own unit: a failing user is recorded in the report and does not stop
// or roll back the others.
func (s *Service) SweepDueIncome(ctx context.Context, asOf time.Time) (*SweepReport, error) {
	users, err := s.store.UsersWithDueIncome(ctx, asOf)
	if err != nil {
		return nil, storeErr("users with due income", err)
	}

	report := &SweepReport{AsOf: asOf, Users: len(users), Failed: make(map[uuid.UUID]error)}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, userID := range users {
		userID := userID
		g.Go(func() error {
			created, err := s.TriggerDueIncomeSources(ctx, userID, asOf)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("ERROR: Income sweep failed for user %s: %v", userID, err)
				report.Failed[userID] = err
				return nil
			}
			report.Transactions += len(created)
			return nil
		})
	}
	_ = g.Wait()

	log.Printf("INFO: Income sweep as of %s: %d users, %d transactions, %d failed",
		asOf.Format(time.DateOnly), report.Users, report.Transactions, len(report.Failed))
	return report, nil
}
