package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// lotColumns is the shared SELECT column list for lot hydration.
const lotColumns = `lot_id, code, product_id, facility_id, unit, initial_qty,
    available, reserved, shipped, status, version, created_at, updated_at`

// CreateLot inserts a new lot at version 1. Returns ErrDuplicateLotCode
// when the code is already taken.
func (b *Backend) CreateLot(l *types.Lot) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	return insertLot(db, l)
}

func insertLot(x execer, l *types.Lot) error {
	if l == nil {
		return types.ErrInvalidData
	}

	if l.LotID == "" {
		l.LotID = newID()
	}
	l.Version = 1

	_, err := x.Exec(`INSERT INTO lots
        (lot_id, code, product_id, facility_id, unit, initial_qty, available,
         reserved, shipped, status, version, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.LotID, l.Code, l.ProductID, l.FacilityID, l.Unit,
		l.InitialQty.String(), l.Available.String(), l.Reserved.String(),
		l.Shipped.String(), string(l.Status), l.Version,
		l.CreatedAt.Format(timeFormat), l.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", types.ErrDuplicateLotCode, l.Code)
		}
		return fmt.Errorf("inserting lot %s: %w", l.Code, err)
	}
	return nil
}

// GetLot retrieves a lot by ID.
func (b *Backend) GetLot(id string) (*types.Lot, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(`SELECT `+lotColumns+` FROM lots WHERE lot_id = ?`, id)
	l, err := hydrateLot(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrLotNotFound
		}
		return nil, fmt.Errorf("getting lot %s: %w", id, err)
	}
	return l, nil
}

// GetLotByCode retrieves a lot by its traceability lot code.
func (b *Backend) GetLotByCode(code string) (*types.Lot, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(`SELECT `+lotColumns+` FROM lots WHERE code = ?`, code)
	l, err := hydrateLot(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrLotNotFound
		}
		return nil, fmt.Errorf("getting lot by code %s: %w", code, err)
	}
	return l, nil
}

// ListLots returns all lots ordered by code, optionally filtered by
// status (empty status means no filter).
func (b *Backend) ListLots(status types.LotStatus) ([]*types.Lot, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + lotColumns + ` FROM lots`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY code`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}
	defer rows.Close()

	var out []*types.Lot
	for rows.Next() {
		l, err := hydrateLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateLot writes the lot conditionally on its version and increments
// it. Returns ErrConcurrentModification when the stored version no
// longer matches; the row is left untouched.
func (b *Backend) UpdateLot(l *types.Lot) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if err := updateLotCAS(db, l); err != nil {
		return err
	}
	l.Version++
	return nil
}

func updateLotCAS(x execer, l *types.Lot) error {
	if l == nil {
		return types.ErrInvalidData
	}

	res, err := x.Exec(`UPDATE lots SET
        code = ?, product_id = ?, facility_id = ?, unit = ?, initial_qty = ?,
        available = ?, reserved = ?, shipped = ?, status = ?,
        version = version + 1, updated_at = ?
        WHERE lot_id = ? AND version = ?`,
		l.Code, l.ProductID, l.FacilityID, l.Unit, l.InitialQty.String(),
		l.Available.String(), l.Reserved.String(), l.Shipped.String(),
		string(l.Status), l.UpdatedAt.Format(timeFormat),
		l.LotID, l.Version,
	)
	if err != nil {
		return fmt.Errorf("updating lot %s: %w", l.Code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating lot %s: %w", l.Code, err)
	}
	if n == 0 {
		// Either the lot vanished or a concurrent writer bumped the
		// version; distinguish for the caller.
		var exists int
		if scanErr := x.QueryRow(`SELECT 1 FROM lots WHERE lot_id = ?`, l.LotID).Scan(&exists); scanErr == sql.ErrNoRows {
			return types.ErrLotNotFound
		}
		return fmt.Errorf("%w: lot %s version %d", types.ErrConcurrentModification, l.Code, l.Version)
	}
	return nil
}

// hydrateLot scans a lot row into a struct.
func hydrateLot(row rowScanner) (*types.Lot, error) {
	var l types.Lot
	var initial, available, reserved, shipped, status, createdAt, updatedAt string
	err := row.Scan(&l.LotID, &l.Code, &l.ProductID, &l.FacilityID, &l.Unit,
		&initial, &available, &reserved, &shipped, &status, &l.Version,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if l.InitialQty, err = decimal.NewFromString(initial); err != nil {
		return nil, fmt.Errorf("parsing initial_qty: %w", err)
	}
	if l.Available, err = decimal.NewFromString(available); err != nil {
		return nil, fmt.Errorf("parsing available: %w", err)
	}
	if l.Reserved, err = decimal.NewFromString(reserved); err != nil {
		return nil, fmt.Errorf("parsing reserved: %w", err)
	}
	if l.Shipped, err = decimal.NewFromString(shipped); err != nil {
		return nil, fmt.Errorf("parsing shipped: %w", err)
	}
	l.Status = types.LotStatus(status)
	if l.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if l.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &l, nil
}
