// README: Offer negotiation loop; one goroutine per ride in MATCHING.
package ride

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"safar/internal/config"
	"safar/internal/modules/driver"
	"safar/internal/modules/offer"
	"safar/internal/observability"
	"safar/internal/types"
)

// OfferNotifier pushes a pending offer to the candidate driver. Delivery is
// best effort; drivers can also discover offers by polling.
type OfferNotifier interface {
	NotifyOffer(driverID types.ID, o Offer)
}

// Negotiator walks the candidate drivers for a ride, nearest first, publishing
// one expiring offer at a time. A driver accepts by racing the offer key out
// of the store; the key vanishing before its TTL is the acceptance signal.
type Negotiator struct {
	rides    *Service
	locator  *driver.Locator
	offers   offer.Store
	notifier OfferNotifier
	cfg      config.MatchingConfig
	logger   *slog.Logger
}

func NewNegotiator(rides *Service, locator *driver.Locator, offers offer.Store, notifier OfferNotifier, cfg config.MatchingConfig, logger *slog.Logger) *Negotiator {
	return &Negotiator{
		rides:    rides,
		locator:  locator,
		offers:   offers,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run negotiates driver assignment for one ride. It returns when the ride is
// assigned, leaves MATCHING by another path, runs out of candidates or rounds,
// or ctx is cancelled. Drivers who let an offer lapse are excluded from later
// rounds of the same negotiation.
func (n *Negotiator) Run(ctx context.Context, rideID types.ID) {
	r, err := n.rides.Get(ctx, rideID)
	if err != nil {
		n.logger.Error("negotiation aborted, ride not loadable", "ride_id", rideID, "error", err)
		return
	}
	if r.Status != StatusMatching {
		return
	}
	// Create guarantees pickup coordinates on every MATCHING ride, so there
	// is no label-geocode path here; a nil pickup means a corrupted record.
	if r.Pickup == nil {
		n.logger.Error("matching ride has no pickup coordinates", "ride_id", rideID)
		return
	}
	pickup := *r.Pickup

	excluded := make(map[types.ID]bool)
	for round := 0; round < n.cfg.MaxRounds; round++ {
		cand, err := n.locator.FindNearest(ctx, pickup, excluded)
		if errors.Is(err, driver.ErrNoDriver) {
			break
		}
		if err != nil {
			n.logger.Error("candidate search failed", "ride_id", rideID, "error", err)
			return
		}
		excluded[cand.ID] = true

		if err := n.offers.Put(ctx, rideID, cand.ID, n.cfg.OfferTTL); err != nil {
			n.logger.Error("failed to publish offer", "ride_id", rideID, "driver_id", cand.ID, "error", err)
			return
		}
		now := time.Now().UTC()
		o := Offer{RideID: rideID, DriverID: cand.ID, CreatedAt: now, ExpiresAt: now.Add(n.cfg.OfferTTL)}
		n.rides.RecordEvent(ctx, rideID, EventMatch, "Offer sent to driver "+string(cand.ID))
		if n.notifier != nil {
			n.notifier.NotifyOffer(cand.ID, o)
		}
		observability.OffersPublished.Inc()
		n.logger.Info("offer published",
			"ride_id", rideID, "driver_id", cand.ID, "round", round+1, "ttl", n.cfg.OfferTTL)

		switch n.awaitOffer(ctx, rideID, cand.ID) {
		case awaitResolved, awaitStopped:
			return
		case awaitExpired:
			observability.OffersExpired.Inc()
			n.logger.Info("offer expired", "ride_id", rideID, "driver_id", cand.ID)
		}
	}

	observability.NegotiationsExhausted.Inc()
	n.logger.Warn("negotiation exhausted, ride stays in matching",
		"ride_id", rideID, "rounds", n.cfg.MaxRounds, "excluded", len(excluded))
}

type awaitOutcome int

const (
	// awaitExpired: the offer lapsed without acceptance; try the next candidate.
	awaitExpired awaitOutcome = iota
	// awaitResolved: the ride left MATCHING (accepted or cancelled elsewhere).
	awaitResolved
	// awaitStopped: ctx cancelled mid-negotiation.
	awaitStopped
)

// awaitOffer polls the offer key once per interval until the TTL elapses. The
// key vanishing means either acceptance or expiry; the ride's status, not the
// key, settles which, since the accept path performs the assignment before
// its request returns.
func (n *Negotiator) awaitOffer(ctx context.Context, rideID, driverID types.ID) awaitOutcome {
	ticks := int(n.cfg.OfferTTL / n.cfg.PollInterval)
	ticker := time.NewTicker(n.cfg.PollInterval)
	defer ticker.Stop()

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			n.forget(rideID, driverID)
			return awaitStopped
		case <-ticker.C:
		}

		exists, err := n.offers.Exists(ctx, rideID, driverID)
		if err != nil {
			n.logger.Warn("offer poll failed", "ride_id", rideID, "driver_id", driverID, "error", err)
			continue
		}
		if !exists {
			return n.confirm(ctx, rideID, driverID)
		}

		r, err := n.rides.Get(ctx, rideID)
		if err != nil || r.Status != StatusMatching {
			n.forget(rideID, driverID)
			return awaitResolved
		}
	}

	n.forget(rideID, driverID)
	return n.confirm(ctx, rideID, driverID)
}

// confirm distinguishes acceptance from plain expiry after the key is gone:
// an accepting driver flips the ride out of MATCHING within the grace window,
// an expired offer leaves it untouched.
func (n *Negotiator) confirm(ctx context.Context, rideID, driverID types.ID) awaitOutcome {
	const graceTicks = 3
	for i := 0; ; i++ {
		r, err := n.rides.Get(ctx, rideID)
		if err == nil && r.Status != StatusMatching {
			if r.DriverID != nil && *r.DriverID == driverID {
				n.logger.Info("offer accepted", "ride_id", rideID, "driver_id", driverID)
			}
			return awaitResolved
		}
		if i >= graceTicks {
			return awaitExpired
		}
		select {
		case <-ctx.Done():
			return awaitStopped
		case <-time.After(n.cfg.PollInterval):
		}
	}
}

// AcceptOffer is the driver-side acceptance. The atomic check-and-delete on
// the offer key decides the winner when two drivers, or a driver and the
// expiry sweep, race on the same offer.
func (n *Negotiator) AcceptOffer(ctx context.Context, rideID, driverID types.ID) (*Ride, error) {
	won, err := n.offers.CheckAndDelete(ctx, rideID, driverID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrNoOffer
	}

	r, err := n.rides.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusMatching {
		return nil, ErrConflict
	}

	err = n.rides.Assign(ctx, AssignCommand{
		RideID:   rideID,
		DriverID: driverID,
		Note:     "Driver " + string(driverID) + " accepted the offer",
	})
	if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrConflict) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	observability.OffersAccepted.Inc()
	return n.rides.Get(ctx, rideID)
}

func (n *Negotiator) forget(rideID, driverID types.ID) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.offers.Forget(ctx, rideID, driverID); err != nil {
		n.logger.Warn("failed to forget offer", "ride_id", rideID, "driver_id", driverID, "error", err)
	}
}
