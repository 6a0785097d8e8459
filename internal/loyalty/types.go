package loyalty

import "encoding/json"

// CustomerRecord is the loyalty CRM's customer shape. Every field may be
// absent; derived calculations treat absence as the zero value.
type CustomerRecord struct {
	ID                json.Number `json:"id"`
	Firstname         string      `json:"firstname"`
	Lastname          string      `json:"lastname"`
	Mobile            string      `json:"mobile"`
	Email             string      `json:"email"`
	CurrentSlab       string      `json:"current_slab"`
	LoyaltyPoints     float64     `json:"loyalty_points"`
	LifetimePoints    float64     `json:"lifetime_points"`
	LifetimePurchases float64     `json:"lifetime_purchases"`
	ItemStatus        *ItemStatus `json:"item_status,omitempty"`
	CustomFields      FieldList   `json:"custom_fields"`
	ExtendedFields    FieldList   `json:"extended_fields"`
}

// ItemStatus is the per-record status block the CRM nests inside customer
// entries, including the not-found indicator it emits under an outer 200.
type ItemStatus struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FieldList struct {
	Field []NameValue `json:"field"`
}

type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Transaction is one purchase or return. A single transaction may carry both
// issued and redeemed points.
type Transaction struct {
	ID          json.Number       `json:"id"`
	Number      string            `json:"number"`
	Type        string            `json:"type"` // REGULAR or RETURN
	Amount      json.Number       `json:"amount"`
	GrossAmount json.Number       `json:"gross_amount"`
	BillingTime string            `json:"billing_time"`
	Store       string            `json:"store"`
	StoreCode   string            `json:"store_code"`
	Points      TransactionPoints `json:"points"`
}

type TransactionPoints struct {
	Issued   json.Number `json:"issued"`
	Redeemed json.Number `json:"redeemed"`
	Returned json.Number `json:"returned"`
	Expired  json.Number `json:"expired"`
}

type ErrorType string

const (
	ErrorNotFound ErrorType = "not_found"
	ErrorAPI      ErrorType = "api_error"
	ErrorAuth     ErrorType = "auth_error"
)

type ResultError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message,omitempty"`
	Code    string    `json:"code,omitempty"`
}

// CustomerResult is the normalized lookup outcome: exactly one of Customer or
// Err is populated. Callers never inspect raw HTTP status.
type CustomerResult struct {
	Customer *CustomerRecord `json:"customer"`
	Err      *ResultError    `json:"error,omitempty"`
}

type UpdateResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Err     *ResultError `json:"error,omitempty"`
}

type TransactionsResult struct {
	Transactions []Transaction `json:"transactions"`
	HasMore      bool          `json:"hasMore"`
	Total        int           `json:"total"`
	Err          *ResultError  `json:"error,omitempty"`
}

// Wire envelopes. The CRM wraps everything in a response/status block and
// signals per-record conditions through nested codes.

type responseStatus struct {
	Code    json.Number `json:"code"`
	Message string      `json:"message"`
}

type customerEnvelope struct {
	Response struct {
		Status    responseStatus `json:"status"`
		Customers struct {
			Customer []CustomerRecord `json:"customer"`
		} `json:"customers"`
	} `json:"response"`
}

type transactionsEnvelope struct {
	Response struct {
		Status   responseStatus `json:"status"`
		Customer struct {
			Transactions struct {
				Transaction []Transaction `json:"transaction"`
			} `json:"transactions"`
			Count json.Number `json:"count"`
		} `json:"customer"`
	} `json:"response"`
}

type updateEnvelope struct {
	Response struct {
		Status responseStatus `json:"status"`
	} `json:"response"`
}
