package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// RegisteredDevice is a user-assigned label for a hardware address.
type RegisteredDevice struct {
	MAC       string
	Name      *string
	Comment   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Upsert registers a device label, creating or replacing the row.
func (r *Repository) Upsert(ctx context.Context, mac string, name, comment *string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices_registered (mac, name, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(mac) DO UPDATE SET
			name=excluded.name,
			comment=excluded.comment,
			updated_at=excluded.updated_at`,
		mac, fromStringPtr(name), fromStringPtr(comment), now, now)
	return err
}

// Patch updates the provided fields of an existing registration and
// fails with ErrNotFound when the device was never registered.
func (r *Repository) Patch(ctx context.Context, mac string, name, comment *string) error {
	existing, err := r.get(ctx, mac)
	if err != nil {
		return err
	}
	if name == nil {
		name = existing.Name
	}
	if comment == nil {
		comment = existing.Comment
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE devices_registered SET name = ?, comment = ?, updated_at = ? WHERE mac = ?`,
		fromStringPtr(name), fromStringPtr(comment), time.Now().UTC().Format(time.RFC3339Nano), mac)
	return err
}

// Delete removes a registration; deleting an unknown MAC is a no-op.
func (r *Repository) Delete(ctx context.Context, mac string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM devices_registered WHERE mac = ?`, mac)
	return err
}

// List returns all registrations keyed by MAC.
func (r *Repository) List(ctx context.Context) (map[string]RegisteredDevice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mac, name, comment, created_at, updated_at FROM devices_registered`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]RegisteredDevice{}
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		result[device.MAC] = device
	}
	return result, rows.Err()
}

func (r *Repository) get(ctx context.Context, mac string) (RegisteredDevice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT mac, name, comment, created_at, updated_at FROM devices_registered WHERE mac = ?`, mac)
	device, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RegisteredDevice{}, ErrNotFound
	}
	return device, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (RegisteredDevice, error) {
	var (
		device           RegisteredDevice
		name, comment    sql.NullString
		created, updated string
	)
	if err := row.Scan(&device.MAC, &name, &comment, &created, &updated); err != nil {
		return RegisteredDevice{}, err
	}
	device.Name = strPtr(name)
	device.Comment = strPtr(comment)
	device.CreatedAt = parseTime(created)
	device.UpdatedAt = parseTime(updated)
	return device, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func fromStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
