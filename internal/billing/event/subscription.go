package event

import (
	"encoding/json"
	"strings"
	"time"

	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
)

// Subscription is the validated data.object of a subscription lifecycle
// event, narrowed to what reconciliation reads. Nil pointer fields mean the
// event did not mention them.
type Subscription struct {
	ID                 string
	Status             string
	CustomerID         string
	Metadata           map[string]string
	PriceMetadata      map[string]string
	ProductMetadata    map[string]string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAt           *time.Time
	CanceledAt         *time.Time
	TrialEnd           *time.Time
}

type wireSubscription struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Customer json.RawMessage `json:"customer"`
	Metadata map[string]any  `json:"metadata"`
	Items    struct {
		Data []wireItem `json:"data"`
	} `json:"items"`
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
	CancelAt           int64 `json:"cancel_at"`
	CanceledAt         int64 `json:"canceled_at"`
	TrialEnd           int64 `json:"trial_end"`
}

type wireItem struct {
	Price wirePrice `json:"price"`
}

type wirePrice struct {
	Metadata map[string]any  `json:"metadata"`
	Product  json.RawMessage `json:"product"`
}

type wireProduct struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata"`
}

// ParseSubscription validates the nested subscription object. The provider
// subscription id is the only required field.
func ParseSubscription(object json.RawMessage) (*Subscription, error) {
	var wire wireSubscription
	if err := json.Unmarshal(object, &wire); err != nil {
		return nil, billingdomain.ErrInvalidSubscriptionPayload
	}
	if strings.TrimSpace(wire.ID) == "" {
		return nil, billingdomain.ErrInvalidSubscriptionPayload
	}

	sub := &Subscription{
		ID:                 strings.TrimSpace(wire.ID),
		Status:             strings.TrimSpace(wire.Status),
		CustomerID:         parseCustomerID(wire.Customer),
		Metadata:           stringMap(wire.Metadata),
		CurrentPeriodStart: epochToTime(wire.CurrentPeriodStart),
		CurrentPeriodEnd:   epochToTime(wire.CurrentPeriodEnd),
		CancelAt:           epochToTime(wire.CancelAt),
		CanceledAt:         epochToTime(wire.CanceledAt),
		TrialEnd:           epochToTime(wire.TrialEnd),
	}

	// Only the first subscription item is consulted.
	if len(wire.Items.Data) > 0 {
		price := wire.Items.Data[0].Price
		sub.PriceMetadata = stringMap(price.Metadata)
		sub.ProductMetadata = parseProductMetadata(price.Product)
	}

	return sub, nil
}

// parseCustomerID accepts the customer as either a bare string id or an
// object carrying an id.
func parseCustomerID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return strings.TrimSpace(id)
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.ID)
	}
	return ""
}

// parseProductMetadata reads metadata only when the product arrives as an
// embedded object; a bare id reference carries none.
func parseProductMetadata(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return nil
	}

	var product wireProduct
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil
	}
	return stringMap(product.Metadata)
}

func stringMap(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		if s, ok := value.(string); ok {
			out[key] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
