package dashboard

import (
	"context"

	"bankdash/internal/amqp"
	"bankdash/internal/log"
	"bankdash/internal/session"
)

// Deps are shared by every controller.
type Deps struct {
	Tokens    session.TokenStore
	Flights   *Flights
	Publisher ActivityPublisher
	Logger    *log.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Flights == nil {
		d.Flights = NewFlights()
	}
	if d.Publisher == nil {
		d.Publisher = NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	d.Logger = d.Logger.WithComponent(log.ComponentDashboard)
	return d
}

// finish publishes the attempt, logs it and refreshes the outlet. It runs
// after every attempted call, whatever the call's outcome.
func (d Deps) finish(ctx context.Context, res *Result, outlet OutletContext, msg *amqp.ActivityMessage) {
	publishActivity(ctx, d.Publisher, d.Logger, msg)
	log.NewStructuredLogger(d.Logger).LogAction(ctx, msg.Kind, msg.SessionID, res.Err)
	d.refresh(ctx, res, outlet)
}

// refresh re-reads the outlet after an attempt, including one that stopped
// on a missing token.
func (d Deps) refresh(ctx context.Context, res *Result, outlet OutletContext) {
	if outlet != nil {
		res.refreshed(outlet.Refresh(ctx))
	}
}
