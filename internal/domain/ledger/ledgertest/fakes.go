// Package ledgertest provides in-memory fakes for exercising ledger
// orchestration without a database.
package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/ledger"
)

// TxManager implements tx.Manager by running the function directly. The
// zero value commits unconditionally; NewTxManager binds it to a Repo and
// emulates rollback by restoring the repo's state when fn returns an error,
// so atomicity of multi-line postings can be asserted without a database.
type TxManager struct {
	repo *Repo
}

func NewTxManager(repo *Repo) TxManager {
	return TxManager{repo: repo}
}

func (m TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.repo == nil {
		return fn(ctx)
	}
	saved := m.repo.saveState()
	if err := fn(ctx); err != nil {
		m.repo.restoreState(saved)
		return err
	}
	return nil
}

// Repo is an in-memory ledger.Repository. Safe for concurrent use, but it
// does not emulate row locks; tests relying on lock contention need a real
// database.
type Repo struct {
	mu        sync.Mutex
	Entries   []ledger.Entry
	Snapshots map[string]*ledger.Snapshot // branch|product -> snapshot
}

func NewRepo() *Repo {
	return &Repo{
		Snapshots: make(map[string]*ledger.Snapshot),
	}
}

func snapshotKey(branchID, productID id.ID) string {
	return branchID.String() + "|" + productID.String()
}

// repoState is a deep copy of the repo used for rollback emulation.
type repoState struct {
	entries   []ledger.Entry
	snapshots map[string]*ledger.Snapshot
}

func (r *Repo) saveState() repoState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := repoState{
		entries:   append([]ledger.Entry(nil), r.Entries...),
		snapshots: make(map[string]*ledger.Snapshot, len(r.Snapshots)),
	}
	for k, s := range r.Snapshots {
		copied := *s
		st.snapshots[k] = &copied
	}
	return st
}

func (r *Repo) restoreState(st repoState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = st.entries
	r.Snapshots = st.snapshots
}

func (r *Repo) EntryExists(ctx context.Context, source ledger.SourceRef, movement string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Entries {
		if e.SourceType == source.Type && e.SourceID == source.ID && e.SourceLine == source.LineID && e.Movement == movement {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repo) InsertEntry(ctx context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Entries {
		if e.SourceType == entry.SourceType && e.SourceID == entry.SourceID && e.SourceLine == entry.SourceLine && e.Movement == entry.Movement {
			return apperror.NewDuplicatePosting(entry.SourceType, entry.SourceID, entry.Movement)
		}
	}
	r.Entries = append(r.Entries, *entry)
	return nil
}

func (r *Repo) GetEntriesBySource(ctx context.Context, sourceType string, sourceID id.ID) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Entry
	for _, e := range r.Entries {
		if e.SourceType == sourceType && e.SourceID == sourceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *Repo) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Entry
	for _, e := range r.Entries {
		if filter.BranchID != nil && e.BranchID != *filter.BranchID {
			continue
		}
		if filter.ProductID != nil && e.ProductID != *filter.ProductID {
			continue
		}
		if filter.SourceType != "" && e.SourceType != filter.SourceType {
			continue
		}
		if filter.SourceID != nil && e.SourceID != *filter.SourceID {
			continue
		}
		if filter.Movement != "" && e.Movement != filter.Movement {
			continue
		}
		if filter.FromDate != nil && e.PostedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && e.PostedAt.After(*filter.ToDate) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostedAt.After(out[j].PostedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *Repo) GetSnapshot(ctx context.Context, branchID, productID id.ID) (*ledger.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.Snapshots[snapshotKey(branchID, productID)]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (r *Repo) GetSnapshotForUpdate(ctx context.Context, branchID, productID, baseUnitID id.ID) (*ledger.Snapshot, error) {
	return r.GetSnapshot(ctx, branchID, productID)
}

func (r *Repo) CreateSnapshot(ctx context.Context, snapshot *ledger.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *snapshot
	r.Snapshots[snapshotKey(snapshot.BranchID, snapshot.ProductID)] = &copied
	return nil
}

func (r *Repo) UpdateSnapshot(ctx context.Context, snapshotID id.ID, onHand types.Quantity, unitID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Snapshots {
		if s.ID == snapshotID {
			s.OnHand = onHand
			s.UnitID = &unitID
			s.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return apperror.NewNotFound("snapshot", snapshotID.String())
}

func (r *Repo) ListSnapshotsByBranch(ctx context.Context, branchID id.ID) ([]ledger.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Snapshot
	for _, s := range r.Snapshots {
		if s.BranchID == branchID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID.String() < out[j].ProductID.String() })
	return out, nil
}

// SeedBalance creates or overwrites a snapshot with the given balance.
func (r *Repo) SeedBalance(branchID, productID, unitID id.ID, onHand types.Quantity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Snapshots[snapshotKey(branchID, productID)] = &ledger.Snapshot{
		ID:        id.New(),
		BranchID:  branchID,
		ProductID: productID,
		UnitID:    &unitID,
		OnHand:    onHand,
		UpdatedAt: time.Now().UTC(),
	}
}

// Converter implements ledger.UnitConverter with static conversion data.
// Every product resolves to BaseUnitID; Multipliers maps a transaction unit
// to its base-unit multiplier, any unlisted unit converts 1:1.
type Converter struct {
	BaseUnitID  id.ID
	Multipliers map[id.ID]types.Quantity // scaled multiplier, 10000 = 1.0
}

func NewConverter(baseUnitID id.ID) *Converter {
	return &Converter{
		BaseUnitID:  baseUnitID,
		Multipliers: make(map[id.ID]types.Quantity),
	}
}

func (c *Converter) ToBase(ctx context.Context, productID id.ID, qty types.Quantity, fromUnitID *id.ID) (types.Quantity, id.ID, error) {
	if fromUnitID == nil || *fromUnitID == c.BaseUnitID {
		return qty, c.BaseUnitID, nil
	}
	if m, ok := c.Multipliers[*fromUnitID]; ok {
		return types.Quantity(int64(qty) * int64(m) / types.QuantityScale), c.BaseUnitID, nil
	}
	return qty, c.BaseUnitID, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*Repo)(nil)
var _ ledger.UnitConverter = (*Converter)(nil)
