package ledger

import (
	"fmt"
	"sort"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// TracedEvent is an event enriched with its transformation edges and
// shipment detail, where applicable.
type TracedEvent struct {
	Event    *types.Event                `json:"event"`
	Edges    []*types.TransformationEdge `json:"edges,omitempty"`
	Shipment *types.Shipment             `json:"shipment,omitempty"`
}

// ForwardChain is one node of a downstream trace: a lot, its events in
// ascending timestamp order, and the output lots its material flowed
// into, each annotated with the consuming edge.
type ForwardChain struct {
	Lot    *types.Lot    `json:"lot"`
	Events []TracedEvent `json:"events"`

	Descendants []*ForwardLink `json:"descendants,omitempty"`
}

// ForwardLink attaches the edge that carried material into a descendant.
type ForwardLink struct {
	Edge  *types.TransformationEdge `json:"edge"`
	Chain *ForwardChain             `json:"chain"`
}

// BackwardChain is one node of an upstream trace: a lot, its events in
// descending timestamp order, the receiving event that grounds its
// origin (when present), and the source lots it was transformed from.
type BackwardChain struct {
	Lot    *types.Lot    `json:"lot"`
	Events []TracedEvent `json:"events"`

	// Origin is the lot's receiving or first-receiving event, carrying
	// supplier and entry detail for reference documents.
	Origin *TracedEvent `json:"origin,omitempty"`

	Ancestors []*BackwardLink `json:"ancestors,omitempty"`
}

// BackwardLink attaches the edge that consumed material from an ancestor.
type BackwardLink struct {
	Edge  *types.TransformationEdge `json:"edge"`
	Chain *BackwardChain            `json:"chain"`
}

// TraceForward resolves a lot by code and walks the transformation graph
// downstream, collecting every descendant lot. The graph is acyclic by
// construction; a visited set skips lots already on the walk and the
// configured depth cap fails closed with ErrTraceDepthExceeded on
// corrupted data. A lot without events yields an empty (not erroring)
// chain.
func (e *Engine) TraceForward(lotCode string) (*ForwardChain, error) {
	lot, err := e.store.GetLotByCode(lotCode)
	if err != nil {
		return nil, err
	}
	return e.traceForward(lot, map[string]bool{}, e.cfg.GetTraceMaxDepth())
}

func (e *Engine) traceForward(lot *types.Lot, visited map[string]bool, depth int) (*ForwardChain, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%w: tracing forward from lot %s", types.ErrTraceDepthExceeded, lot.Code)
	}
	visited[lot.LotID] = true

	events, err := e.loadTracedEvents(lot.LotID, false)
	if err != nil {
		return nil, err
	}
	chain := &ForwardChain{Lot: lot, Events: events}

	outgoing, err := e.store.EdgesBySource(lot.LotID)
	if err != nil {
		return nil, fmt.Errorf("loading outgoing edges for lot %s: %w", lot.LotID, err)
	}
	for _, edge := range outgoing {
		if visited[edge.OutputLotID] {
			continue
		}
		next, err := e.store.GetLot(edge.OutputLotID)
		if err != nil {
			return nil, err
		}
		sub, err := e.traceForward(next, visited, depth-1)
		if err != nil {
			return nil, err
		}
		chain.Descendants = append(chain.Descendants, &ForwardLink{Edge: edge, Chain: sub})
	}
	return chain, nil
}

// TraceBackward resolves a lot by code and walks the transformation
// graph upstream, collecting every ancestor lot with the quantities
// consumed from each. Events are ordered by descending timestamp; the
// lot's receiving or first-receiving event, when present, is surfaced as
// the origin.
func (e *Engine) TraceBackward(lotCode string) (*BackwardChain, error) {
	lot, err := e.store.GetLotByCode(lotCode)
	if err != nil {
		return nil, err
	}
	return e.traceBackward(lot, map[string]bool{}, e.cfg.GetTraceMaxDepth())
}

func (e *Engine) traceBackward(lot *types.Lot, visited map[string]bool, depth int) (*BackwardChain, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%w: tracing backward from lot %s", types.ErrTraceDepthExceeded, lot.Code)
	}
	visited[lot.LotID] = true

	events, err := e.loadTracedEvents(lot.LotID, true)
	if err != nil {
		return nil, err
	}
	chain := &BackwardChain{Lot: lot, Events: events}

	for i := range events {
		if events[i].Event.Type == types.EventReceiving || events[i].Event.Type == types.EventFirstReceiving {
			chain.Origin = &events[i]
			break
		}
	}

	incoming, err := e.store.EdgesByOutput(lot.LotID)
	if err != nil {
		return nil, fmt.Errorf("loading incoming edges for lot %s: %w", lot.LotID, err)
	}
	for _, edge := range incoming {
		if visited[edge.SourceLotID] {
			continue
		}
		prev, err := e.store.GetLot(edge.SourceLotID)
		if err != nil {
			return nil, err
		}
		sub, err := e.traceBackward(prev, visited, depth-1)
		if err != nil {
			return nil, err
		}
		chain.Ancestors = append(chain.Ancestors, &BackwardLink{Edge: edge, Chain: sub})
	}
	return chain, nil
}

// loadTracedEvents loads a lot's events with edge and shipment detail
// attached, ascending by timestamp or descending when desc is set.
func (e *Engine) loadTracedEvents(lotID string, desc bool) ([]TracedEvent, error) {
	events, err := e.store.EventsForLot(lotID)
	if err != nil {
		return nil, fmt.Errorf("loading events for lot %s: %w", lotID, err)
	}
	if desc {
		sort.SliceStable(events, func(i, j int) bool {
			return events[j].Timestamp.Before(events[i].Timestamp)
		})
	}

	traced := make([]TracedEvent, 0, len(events))
	for _, ev := range events {
		te := TracedEvent{Event: ev}
		switch ev.Type {
		case types.EventTransformation:
			edges, err := e.store.EdgesForEvent(ev.EventID)
			if err != nil {
				return nil, err
			}
			te.Edges = edges
		case types.EventShipping:
			shipment, err := e.store.ShipmentForEvent(ev.EventID)
			if err != nil {
				return nil, err
			}
			te.Shipment = shipment
		}
		traced = append(traced, te)
	}
	return traced, nil
}
