package store

import (
	"context"
	"errors"

	"hotel-portal/internal/models"
)

const billingColumns = `hotel_id, gst_number, gst_percent_bp, invoice_prefix, next_invoice_seq`

// GetBillingSettings retrieves the settings of a hotel, falling back to defaults
func (q *queries) GetBillingSettings(ctx context.Context, hotelID int64) (*models.BillingSettings, error) {
	var bs models.BillingSettings
	err := q.get(ctx, &bs, "billing settings",
		`SELECT `+billingColumns+` FROM billing_settings WHERE hotel_id = ?`, hotelID)
	if errors.Is(err, models.ErrNotFound) {
		def := models.DefaultBillingSettings(hotelID)
		return &def, nil
	}
	if err != nil {
		return nil, err
	}
	return &bs, nil
}

// LockBillingSettings creates the settings row on demand and locks it
func (q *queries) LockBillingSettings(ctx context.Context, hotelID int64) (*models.BillingSettings, error) {
	def := models.DefaultBillingSettings(hotelID)
	_, err := q.exec(ctx, "create billing settings",
		`INSERT INTO billing_settings (hotel_id, invoice_prefix, next_invoice_seq) VALUES (?, ?, ?)
		 ON CONFLICT (hotel_id) DO NOTHING`,
		hotelID, def.InvoicePrefix, def.NextInvoiceSeq)
	if err != nil {
		return nil, err
	}

	var bs models.BillingSettings
	err = q.get(ctx, &bs, "billing settings",
		`SELECT `+billingColumns+` FROM billing_settings WHERE hotel_id = ? FOR UPDATE`, hotelID)
	if err != nil {
		return nil, err
	}
	return &bs, nil
}

// SetNextInvoiceSeq stores the next invoice sequence number
func (q *queries) SetNextInvoiceSeq(ctx context.Context, hotelID, next int64) error {
	_, err := q.exec(ctx, "advance invoice sequence",
		"UPDATE billing_settings SET next_invoice_seq = ? WHERE hotel_id = ?", next, hotelID)
	return err
}
