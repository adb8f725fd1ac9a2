package ledger

import (
	"fmt"
	"time"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// validateChronology gatekeeps event insertion for a lot. The first event
// on a lot is always valid. Otherwise the proposed timestamp must be at or
// after the latest recorded event's timestamp; equal timestamps are
// permitted unless the strict same-type policy is configured and the
// latest equal-timestamped event shares the proposed type.
//
// The caller must hold the lot's write lock: the check and the subsequent
// append form one critical section.
func (e *Engine) validateChronology(lotID string, proposedType types.EventType, proposed time.Time) error {
	events, err := e.store.EventsForLot(lotID)
	if err != nil {
		return fmt.Errorf("loading events for lot %s: %w", lotID, err)
	}
	if len(events) == 0 {
		return nil
	}

	// EventsForLot orders ascending; the last entry holds the maximum
	// timestamp.
	last := events[len(events)-1]

	if proposed.Before(last.Timestamp) {
		return &types.ChronologyError{
			LotID:        lotID,
			ProposedType: proposedType,
			Proposed:     proposed,
			PriorType:    last.Type,
			PriorAt:      last.Timestamp,
			Delta:        proposed.Sub(last.Timestamp),
		}
	}

	if e.cfg.StrictSameType && proposed.Equal(last.Timestamp) && proposedType == last.Type {
		return &types.ChronologyError{
			LotID:         lotID,
			ProposedType:  proposedType,
			Proposed:      proposed,
			PriorType:     last.Type,
			PriorAt:       last.Timestamp,
			Delta:         0,
			SameTypeClash: true,
		}
	}

	return nil
}
