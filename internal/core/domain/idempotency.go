package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog stores the result of a money movement so a replayed request
// returns it instead of moving money twice.
type IdempotencyLog struct {
	Key           string    `json:"key"` // Format: "account_id:operation:client_key"
	AccountID     uuid.UUID `json:"account_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"`
	CreatedAt     time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a client-supplied key to one account and operation.
func BuildIdempotencyKey(accountID uuid.UUID, op TransactionType, clientKey string) string {
	return accountID.String() + ":" + string(op) + ":" + clientKey
}
