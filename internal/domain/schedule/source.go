package schedule

import "context"

// Source fetches today's intervals for a supply group. Implementations return
// a validated Day or an error, never partial data.
type Source interface {
	FetchDailyIntervals(ctx context.Context, group GroupID) (Day, error)
}
