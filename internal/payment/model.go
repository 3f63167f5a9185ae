package payment

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const StatusSuccess = "success"

// ChannelCard restricts the hosted payment page to card payments.
const ChannelCard = "card"

type Intent struct {
	Email     string
	Amount    int64 // minor unit
	Currency  string
	ProductID string
}

type Initialization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Customer struct {
	ID           int64   `json:"id"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Email        string  `json:"email"`
	CustomerCode string  `json:"customer_code"`
	Phone        *string `json:"phone"`
	RiskAction   string  `json:"risk_action"`
}

// Record is a verified transaction as reported by the provider. It is never
// cached; each callback re-verifies.
type Record struct {
	Status          string
	Reference       string
	Amount          decimal.Decimal // major unit
	Currency        string
	Customer        Customer
	Metadata        json.RawMessage
	PaidAt          *time.Time
	Channel         string
	GatewayResponse string
}

func (r *Record) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// ProductID recovers the product id tagged onto the transaction at
// initialize time. Metadata comes back from the provider untouched, so both
// the top-level key and the custom field are checked.
func (r *Record) ProductID() string {
	if r == nil || len(r.Metadata) == 0 {
		return ""
	}

	var md struct {
		ProductID    string `json:"productId"`
		CustomFields []struct {
			VariableName string `json:"variable_name"`
			Value        any    `json:"value"`
		} `json:"custom_fields"`
	}
	if err := json.Unmarshal(r.Metadata, &md); err != nil {
		return ""
	}
	if md.ProductID != "" {
		return md.ProductID
	}
	for _, f := range md.CustomFields {
		if f.VariableName == "product_id" {
			if s, ok := f.Value.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
