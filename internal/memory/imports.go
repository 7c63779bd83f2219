package memory

import (
	"context"
	"fmt"
	"sort"

	"fondi/internal/core"
)

func (s *Store) batchIndex(id string) int {
	for i := range s.batches {
		if s.batches[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) CreateBatch(_ context.Context, b core.ImportBatch) (core.ImportBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = newID()
	b.Status = core.BatchPending
	b.CreatedAt = nowUTC()
	s.batches = append(s.batches, cloneBatch(b))
	return b, nil
}

func (s *Store) GetBatch(_ context.Context, id string) (core.ImportBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.batchIndex(id)
	if i < 0 {
		return core.ImportBatch{}, fmt.Errorf("import batch %s: %w", id, core.ErrNotFound)
	}
	return cloneBatch(s.batches[i]), nil
}

func (s *Store) UpdateBatch(_ context.Context, b core.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.batchIndex(b.ID)
	if i < 0 {
		return fmt.Errorf("import batch %s: %w", b.ID, core.ErrNotFound)
	}
	kept := s.batches[i]
	kept.Status = b.Status
	kept.NewCount = b.NewCount
	kept.DupCount = b.DupCount
	kept.UnmapCount = b.UnmapCount
	kept.ParseErrors = append([]string(nil), b.ParseErrors...)
	if b.AnalyzedAt != nil {
		t := *b.AnalyzedAt
		kept.AnalyzedAt = &t
	} else {
		kept.AnalyzedAt = nil
	}
	s.batches[i] = kept
	return nil
}

func (s *Store) ReplaceEntries(_ context.Context, batchID string, entries []core.StatementEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]core.StatementEntry, len(entries))
	for i, e := range entries {
		e.ID = newID()
		e.BatchID = batchID
		stored[i] = e
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].LineNo < stored[j].LineNo })
	s.entries[batchID] = stored
	return nil
}

func (s *Store) ListEntries(_ context.Context, batchID string, status core.EntryStatus, limit, offset int) ([]core.StatementEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []core.StatementEntry
	for _, e := range s.entries[batchID] {
		if status != "" && e.Status != status {
			continue
		}
		matched = append(matched, e)
	}
	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return append([]core.StatementEntry(nil), matched[offset:end]...), total, nil
}

func (s *Store) KnownHashes(_ context.Context, accountID string, hashes []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		want[h] = true
	}
	known := make(map[string]bool, len(hashes))
	for _, tr := range s.transactions {
		if tr.AccountID == accountID && want[tr.HashID] {
			known[tr.HashID] = true
		}
	}
	return known, nil
}

func (s *Store) ConfirmBatch(_ context.Context, b core.ImportBatch, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.batchIndex(b.ID)
	if i < 0 {
		return fmt.Errorf("import batch %s: %w", b.ID, core.ErrNotFound)
	}
	now := nowUTC()
	for _, tr := range txs {
		tr.ID = newID()
		tr.ImportedAt = now
		s.transactions = append(s.transactions, tr)
	}
	s.batches[i].Status = core.BatchConfirmed
	return nil
}

func (s *Store) CreateMapping(_ context.Context, m core.ImportMapping) (core.ImportMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = newID()
	m.CreatedAt = nowUTC()
	s.mappings = append(s.mappings, m)
	return m, nil
}

func (s *Store) ListMappings(_ context.Context) ([]core.ImportMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]core.ImportMapping(nil), s.mappings...), nil
}

func (s *Store) DeleteMapping(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.mappings {
		if s.mappings[i].ID == id {
			s.mappings = append(s.mappings[:i], s.mappings[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("import mapping %s: %w", id, core.ErrNotFound)
}
