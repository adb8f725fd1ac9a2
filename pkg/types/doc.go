// Package types defines the domain model for the tracelot traceability
// ledger: products, facilities, lots, critical tracking events and their
// key data elements, transformation edges, shipments, the Store
// persistence interface, and the standard error taxonomy.
//
// Every quantity in this package is expressed in the canonical base unit
// (kilograms) as a decimal; callers convert at the boundary with pkg/units
// before constructing any of these types.
package types
