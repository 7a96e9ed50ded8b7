// Package ledger provides the inventory ledger: the single choke point for
// all stock-affecting events across branches.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

// Direction tags a movement as inbound or outbound.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Sign returns +1 for inbound and -1 for outbound movements.
func (d Direction) Sign() int64 {
	if d == DirectionOut {
		return -1
	}
	return 1
}

// Movement codes. Every ledger entry carries one; orchestrators pick the
// code matching their business event.
const (
	MovementIn  = "IN"  // default for PostIn when the caller omits a code
	MovementOut = "OUT" // default for PostOut when the caller omits a code

	MovementSaleOut     = "SALE_OUT"
	MovementAdjIn       = "ADJ_IN"
	MovementAdjOut      = "ADJ_OUT"
	MovementTransferOut = "TRANSFER_OUT"
	MovementTransferIn  = "TRANSFER_IN"
)

// knownOutbound lists codes that are outbound but do not contain "OUT".
var knownOutbound = map[string]bool{
	"SALE":      true,
	"SHRINKAGE": true,
	"WRITE_OFF": true,
}

// InferDirection resolves the direction from a movement code:
// outbound if the code contains "OUT" or is a known outbound code, else inbound.
func InferDirection(movement string) Direction {
	if strings.Contains(movement, "OUT") || knownOutbound[movement] {
		return DirectionOut
	}
	return DirectionIn
}

// SourceRef identifies the business event and line that produced an entry.
// Together with the movement code it forms the idempotency key: at most one
// entry may exist per (type, id, line, movement).
type SourceRef struct {
	Type   string `db:"source_type" json:"sourceType"`
	ID     id.ID  `db:"source_id" json:"sourceId"`
	LineID id.ID  `db:"source_line" json:"sourceLine"`
}

// Entry is one immutable ledger record. Never updated or deleted once written.
type Entry struct {
	ID        id.ID          `db:"id" json:"id"`
	BranchID  id.ID          `db:"branch_id" json:"branchId"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	UnitID    *id.ID         `db:"unit_id" json:"unitId,omitempty"`
	Movement  string         `db:"movement" json:"movement"`
	Direction Direction      `db:"direction" json:"direction"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	// BalanceAfter is the snapshot balance resulting from this entry.
	BalanceAfter types.Quantity `db:"balance_after" json:"balanceAfter"`

	SourceType string `db:"source_type" json:"sourceType"`
	SourceID   id.ID  `db:"source_id" json:"sourceId"`
	SourceLine id.ID  `db:"source_line" json:"sourceLine"`

	PostedAt time.Time `db:"posted_at" json:"postedAt"`
	PostedBy string    `db:"posted_by" json:"postedBy,omitempty"`

	// Hash is a deterministic digest of the posting payload, used for
	// debugging and integrity spot-checks. The idempotency key is the
	// source triple plus movement, not this hash.
	Hash string `db:"hash" json:"hash"`
}

// ComputeHash returns the sha256 digest over the full posting payload.
func (e *Entry) ComputeHash() string {
	unitPart := ""
	if e.UnitID != nil {
		unitPart = e.UnitID.String()
	}
	payload := strings.Join([]string{
		e.ProductID.String(),
		e.BranchID.String(),
		e.Movement,
		e.Quantity.String(),
		e.SourceType,
		e.SourceID.String(),
		e.SourceLine.String(),
		e.PostedAt.UTC().Format(time.RFC3339),
		e.BalanceAfter.String(),
		unitPart,
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Snapshot is the current-balance row per (branch, product, unit).
// Created lazily on the first movement touching its key, then only updated.
// Invariant: OnHand >= 0 in every committed state.
type Snapshot struct {
	ID        id.ID          `db:"id" json:"id"`
	BranchID  id.ID          `db:"branch_id" json:"branchId"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	UnitID    *id.ID         `db:"unit_id" json:"unitId,omitempty"`
	OnHand    types.Quantity `db:"on_hand" json:"onHand"`
	Reserved  types.Quantity `db:"reserved" json:"reserved"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}
