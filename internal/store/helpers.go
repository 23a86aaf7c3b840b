package store

import (
	"database/sql"

	"github.com/yomasupply/supplierbot/internal/models"
)

// scanProfile scans a CustomerProfile from a single sql.Row.
func scanProfile(row *sql.Row) (*models.CustomerProfile, error) {
	var p models.CustomerProfile
	err := row.Scan(
		&p.TelegramID, &p.Username, &p.FirstName, &p.Name, &p.Phone, &p.Address,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
