package checkout

// InitializeRequest is the body accepted by the initialize endpoint.
type InitializeRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Amount    int64  `json:"amount" validate:"required,gt=0"` // minor unit
	ProductID string `json:"productId" validate:"required"`
	Currency  string `json:"currency" validate:"omitempty,len=3,alpha"`
}
