// Package sqlite implements the SQLite storage backend for the tracelot
// traceability ledger.
package sqlite

// Schema DDL for all tables. The database file is the source of truth;
// statements are idempotent so reopening an existing data directory
// preserves the ledger.
const (
	createProducts = `CREATE TABLE IF NOT EXISTS products (
    product_id TEXT PRIMARY KEY,
    company_id TEXT,
    code TEXT NOT NULL,
    name TEXT NOT NULL,
    category TEXT,
    canonical_unit TEXT NOT NULL,
    shelf_life_days INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createFacilities = `CREATE TABLE IF NOT EXISTS facilities (
    facility_id TEXT PRIMARY KEY,
    company_id TEXT,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    location_code TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createLots = `CREATE TABLE IF NOT EXISTS lots (
    lot_id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    product_id TEXT NOT NULL,
    facility_id TEXT NOT NULL,
    unit TEXT NOT NULL,
    initial_qty TEXT NOT NULL,
    available TEXT NOT NULL,
    reserved TEXT NOT NULL,
    shipped TEXT NOT NULL,
    status TEXT NOT NULL,
    version INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (product_id) REFERENCES products(product_id),
    FOREIGN KEY (facility_id) REFERENCES facilities(facility_id)
);`

	createEvents = `CREATE TABLE IF NOT EXISTS events (
    event_id TEXT PRIMARY KEY,
    lot_id TEXT NOT NULL,
    type TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    facility_id TEXT NOT NULL,
    kde TEXT NOT NULL,
    waste_reason TEXT,
    created_at TEXT NOT NULL,
    FOREIGN KEY (lot_id) REFERENCES lots(lot_id),
    FOREIGN KEY (facility_id) REFERENCES facilities(facility_id)
);`

	createEdges = `CREATE TABLE IF NOT EXISTS transformation_edges (
    edge_id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    output_lot_id TEXT NOT NULL,
    source_lot_id TEXT NOT NULL,
    quantity_used TEXT NOT NULL,
    waste_pct TEXT NOT NULL,
    actual_waste_qty TEXT,
    unit TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (event_id) REFERENCES events(event_id),
    FOREIGN KEY (output_lot_id) REFERENCES lots(lot_id),
    FOREIGN KEY (source_lot_id) REFERENCES lots(lot_id)
);`

	createShipments = `CREATE TABLE IF NOT EXISTS shipments (
    shipment_id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL UNIQUE,
    lot_id TEXT NOT NULL,
    destination TEXT NOT NULL,
    quantity TEXT NOT NULL,
    unit TEXT NOT NULL,
    transport_info TEXT,
    reference_docs TEXT,
    created_at TEXT NOT NULL,
    FOREIGN KEY (event_id) REFERENCES events(event_id),
    FOREIGN KEY (lot_id) REFERENCES lots(lot_id)
);`

	indexEventsLot    = `CREATE INDEX IF NOT EXISTS idx_events_lot ON events(lot_id, timestamp);`
	indexEdgesSource  = `CREATE INDEX IF NOT EXISTS idx_edges_source ON transformation_edges(source_lot_id);`
	indexEdgesOutput  = `CREATE INDEX IF NOT EXISTS idx_edges_output ON transformation_edges(output_lot_id);`
	indexEdgesEvent   = `CREATE INDEX IF NOT EXISTS idx_edges_event ON transformation_edges(event_id);`
	indexShipmentsLot = `CREATE INDEX IF NOT EXISTS idx_shipments_lot ON shipments(lot_id);`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createProducts,
	createFacilities,
	createLots,
	createEvents,
	createEdges,
	createShipments,
	indexEventsLot,
	indexEdgesSource,
	indexEdgesOutput,
	indexEdgesEvent,
	indexShipmentsLot,
}
