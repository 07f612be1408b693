package store

import (
	"context"

	"storefront-service/internal/models"
)

// GetAddressesByUserID retrieves a user's addresses, defaults first
func (s *Store) GetAddressesByUserID(ctx context.Context, userID string) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.SelectContext(ctx, &addresses,
		"SELECT * FROM addresses WHERE user_id = $1 ORDER BY is_default DESC", userID)
	return addresses, err
}

// CreateAddress inserts a new address for a user
func (s *Store) CreateAddress(ctx context.Context, address *models.Address) error {
	query := `
		INSERT INTO addresses (user_id, type, name, street, city, state, zip_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	return s.db.GetContext(ctx, &address.ID, query,
		address.UserID, address.Type, address.Name, address.Street,
		address.City, address.State, address.ZipCode, address.Country,
		address.IsDefault)
}

// UpdateAddress updates an address; the user scope guards against writes to
// another user's rows.
func (s *Store) UpdateAddress(ctx context.Context, userID string, address *models.Address) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE addresses
		SET type = $1, name = $2, street = $3, city = $4, state = $5,
		    zip_code = $6, country = $7, is_default = $8
		WHERE id = $9 AND user_id = $10`,
		address.Type, address.Name, address.Street, address.City,
		address.State, address.ZipCode, address.Country, address.IsDefault,
		address.ID, userID)
	return err
}

// DeleteAddress removes a user's address
func (s *Store) DeleteAddress(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM addresses WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

// GetPaymentMethodsByUserID retrieves a user's payment methods, defaults first
func (s *Store) GetPaymentMethodsByUserID(ctx context.Context, userID string) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := s.db.SelectContext(ctx, &methods,
		"SELECT * FROM payment_methods WHERE user_id = $1 ORDER BY is_default DESC", userID)
	return methods, err
}

// CreatePaymentMethod inserts a new payment method for a user
func (s *Store) CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	query := `
		INSERT INTO payment_methods (user_id, type, last4, expiry, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return s.db.GetContext(ctx, &method.ID, query,
		method.UserID, method.Type, method.Last4, method.Expiry, method.IsDefault)
}

// UpdatePaymentMethod updates a user's payment method
func (s *Store) UpdatePaymentMethod(ctx context.Context, userID string, method *models.PaymentMethod) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE payment_methods
		SET type = $1, last4 = $2, expiry = $3, is_default = $4
		WHERE id = $5 AND user_id = $6`,
		method.Type, method.Last4, method.Expiry, method.IsDefault,
		method.ID, userID)
	return err
}

// DeletePaymentMethod removes a user's payment method
func (s *Store) DeletePaymentMethod(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM payment_methods WHERE id = $1 AND user_id = $2", id, userID)
	return err
}
