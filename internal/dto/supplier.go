package dto

import "time"

// SupplierResponse is a supplier as exposed via transport layers. Absent optional fields render as null.
type SupplierResponse struct {
	ID           int64      `json:"id"`
	DocumentType string     `json:"document_type"`
	Document     string     `json:"document"`
	LegalName    string     `json:"legal_name"`
	TradeName    *string    `json:"trade_name"`
	Email        *string    `json:"email"`
	Phone        *string    `json:"phone"`
	PostalCode   *string    `json:"postal_code"`
	Street       *string    `json:"street"`
	Number       *string    `json:"number"`
	Complement   *string    `json:"complement"`
	District     *string    `json:"district"`
	City         *string    `json:"city"`
	State        *string    `json:"state"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// SupplierPage is one page of a supplier listing.
type SupplierPage struct {
	Data        []SupplierResponse `json:"data"`
	CurrentPage int                `json:"current_page"`
	PerPage     int                `json:"per_page"`
	Total       int                `json:"total"`
	LastPage    int                `json:"last_page"`
}

// Message is a bare acknowledgement body.
type Message struct {
	Message string `json:"message"`
}
