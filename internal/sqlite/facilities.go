package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// SaveFacility inserts or updates a facility. A new FacilityID is
// generated when empty and written back to the struct.
func (b *Backend) SaveFacility(f *types.Facility) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if f == nil {
		return types.ErrInvalidData
	}

	if f.FacilityID == "" {
		f.FacilityID = newID()
	}
	_, err = db.Exec(`INSERT INTO facilities
        (facility_id, company_id, name, type, location_code, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(facility_id) DO UPDATE SET
        company_id = excluded.company_id, name = excluded.name, type = excluded.type,
        location_code = excluded.location_code, updated_at = excluded.updated_at`,
		f.FacilityID, f.CompanyID, f.Name, string(f.Type), f.LocationCode,
		f.CreatedAt.Format(timeFormat), f.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("persisting facility %s: %w", f.Name, err)
	}
	return nil
}

// GetFacility retrieves a facility by ID.
func (b *Backend) GetFacility(id string) (*types.Facility, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(`SELECT facility_id, company_id, name, type, location_code,
        created_at, updated_at FROM facilities WHERE facility_id = ?`, id)
	f, err := hydrateFacility(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrFacilityNotFound
		}
		return nil, fmt.Errorf("getting facility %s: %w", id, err)
	}
	return f, nil
}

// ListFacilities returns all facilities ordered by name.
func (b *Backend) ListFacilities() ([]*types.Facility, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT facility_id, company_id, name, type, location_code,
        created_at, updated_at FROM facilities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing facilities: %w", err)
	}
	defer rows.Close()

	var out []*types.Facility
	for rows.Next() {
		f, err := hydrateFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// hydrateFacility scans a facility row into a struct.
func hydrateFacility(row rowScanner) (*types.Facility, error) {
	var f types.Facility
	var ftype, createdAt, updatedAt string
	err := row.Scan(&f.FacilityID, &f.CompanyID, &f.Name, &ftype, &f.LocationCode,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	f.Type = types.FacilityType(ftype)
	if f.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if f.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &f, nil
}
