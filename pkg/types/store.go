package types

import "errors"

// WriteSet is one atomic ledger write: at most one appended event with
// its dependent rows, plus the lot rows it creates or conditions on.
// The store applies the whole set in a single transaction; a version
// conflict on any UpdateLots entry rolls everything back and surfaces
// ErrConcurrentModification, so a retried submission never leaves a
// partially committed event behind.
type WriteSet struct {
	Event      *Event
	Edges      []*TransformationEdge
	Shipment   *Shipment
	CreateLots []*Lot
	UpdateLots []*Lot
}

// Store is the backend-agnostic persistence interface for the
// traceability ledger. Implementations must make each method atomic on
// its own; multi-entity writes that must commit or fail together go
// through ApplyWrite. Cross-call consistency (validate-all-then-mutate
// across several reads) remains the ledger engine's responsibility,
// protected by per-lot serialization and the lot Version token.
type Store interface {
	// Open connects the store to the backend described by config,
	// creating the data directory if needed. Returns ErrAlreadyOpen if
	// called while already open.
	Open(config Config) error

	// Close releases backend resources. Idempotent: multiple calls
	// succeed. After Close, all other operations return ErrStoreClosed.
	Close() error

	// SaveProduct creates or updates a product. A new ProductID is
	// generated when empty; the ID used is written back to the struct.
	SaveProduct(p *Product) error

	// GetProduct returns the product with the given ID.
	// Returns ErrProductNotFound if no product exists with that ID.
	GetProduct(id string) (*Product, error)

	// ListProducts returns all products ordered by code.
	ListProducts() ([]*Product, error)

	// SaveFacility creates or updates a facility. A new FacilityID is
	// generated when empty; the ID used is written back to the struct.
	SaveFacility(f *Facility) error

	// GetFacility returns the facility with the given ID.
	// Returns ErrFacilityNotFound if no facility exists with that ID.
	GetFacility(id string) (*Facility, error)

	// ListFacilities returns all facilities ordered by name.
	ListFacilities() ([]*Facility, error)

	// CreateLot inserts a new lot at Version 1. Returns
	// ErrDuplicateLotCode when the code is already taken.
	CreateLot(l *Lot) error

	// GetLot returns the lot with the given ID.
	// Returns ErrLotNotFound if no lot exists with that ID.
	GetLot(id string) (*Lot, error)

	// GetLotByCode returns the lot with the given traceability lot code.
	// Returns ErrLotNotFound if no lot carries that code.
	GetLotByCode(code string) (*Lot, error)

	// ListLots returns all lots ordered by code, optionally filtered by
	// status (empty status means no filter).
	ListLots(status LotStatus) ([]*Lot, error)

	// UpdateLot writes the lot conditionally on its Version and
	// increments it. Returns ErrConcurrentModification when the stored
	// version no longer matches, leaving the row untouched.
	UpdateLot(l *Lot) error

	// ApplyWrite commits a WriteSet in one transaction. All rows land or
	// none do; generated IDs are written back to the structs. Returns
	// ErrConcurrentModification when any UpdateLots version check fails.
	ApplyWrite(w WriteSet) error

	// AppendEvent inserts an immutable event record. A new EventID is
	// generated when empty; the ID used is written back to the struct.
	AppendEvent(e *Event) error

	// GetEvent returns the event with the given ID.
	// Returns ErrEventNotFound if no event exists with that ID.
	GetEvent(id string) (*Event, error)

	// EventsForLot returns the lot's events ordered by timestamp
	// ascending, with insertion order breaking ties.
	EventsForLot(lotID string) ([]*Event, error)

	// SaveEdge inserts or updates a transformation edge. A new EdgeID is
	// generated when empty; the ID used is written back to the struct.
	SaveEdge(e *TransformationEdge) error

	// GetEdge returns the edge with the given ID.
	// Returns ErrEdgeNotFound if no edge exists with that ID.
	GetEdge(id string) (*TransformationEdge, error)

	// EdgesForEvent returns the edges owned by a transformation event.
	EdgesForEvent(eventID string) ([]*TransformationEdge, error)

	// EdgesBySource returns the edges where the lot is consumed as a
	// source, i.e. the lot's outgoing edges in the graph.
	EdgesBySource(lotID string) ([]*TransformationEdge, error)

	// EdgesByOutput returns the edges producing the lot, i.e. the lot's
	// incoming edges in the graph.
	EdgesByOutput(lotID string) ([]*TransformationEdge, error)

	// SaveShipment inserts the shipment linked to a shipping event. A
	// new ShipmentID is generated when empty; the ID used is written
	// back to the struct.
	SaveShipment(s *Shipment) error

	// ShipmentForEvent returns the shipment linked to a shipping event,
	// or nil when the event has none.
	ShipmentForEvent(eventID string) (*Shipment, error)
}

// Store lifecycle errors.
var (
	ErrStoreClosed = errors.New("store is closed")
	ErrAlreadyOpen = errors.New("store is already open")
	ErrInvalidData = errors.New("invalid entity data")
)
