package model

// TransactionType distinguishes stock-reducing sales from stock-increasing purchases.
type TransactionType string

const (
	// TransactionSale reduces stock.
	TransactionSale TransactionType = "sale"
	// TransactionPurchase increases stock.
	TransactionPurchase TransactionType = "purchase"
)

// IsValid reports whether t is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	return t == TransactionSale || t == TransactionPurchase
}

// Transaction is an immutable stock movement recorded by the backend.
// TotalPrice is signed: sales are positive, purchases negative.
type Transaction struct {
	Time        Timestamp       `json:"time_of_transaction"`
	ID          ID              `json:"id"`
	ProductID   ID              `json:"product_id"`
	ProductName string          `json:"product_name"`
	Type        TransactionType `json:"transaction_type"`
	Quantity    int             `json:"product_quantity"`
	TotalPrice  float64         `json:"total_price"`
}

// IsSale reports whether the transaction is a sale.
func (t Transaction) IsSale() bool {
	return t.Type == TransactionSale
}

// TransactionInput is the payload for recording a new transaction.
type TransactionInput struct {
	ProductName string          `json:"name"`
	Type        TransactionType `json:"transaction_type"`
	Quantity    int             `json:"quantity"`
}
