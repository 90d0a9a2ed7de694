package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferenceCatalog serves read-mostly lookups over order statuses, delivery
// methods and payment methods. Lookups read an immutable in-memory snapshot;
// Seed and Reload replace it wholesale.
type ReferenceCatalog interface {
	LookupByCode(kind CatalogKind, code string) (*ReferenceEntry, error)
	LookupByID(kind CatalogKind, id uuid.UUID) (*ReferenceEntry, error)
	// Resolve accepts either an entry id or its code.
	Resolve(kind CatalogKind, ref string) (*ReferenceEntry, error)
	ListAll(kind CatalogKind, activeOnly bool) []ReferenceEntry

	Seed(ctx context.Context) error
	Reload(ctx context.Context) error
}

type catalogIndex struct {
	byCode map[string]ReferenceEntry
	byID   map[uuid.UUID]ReferenceEntry
	sorted []ReferenceEntry
}

type catalogSnapshot map[CatalogKind]*catalogIndex

type catalog struct {
	pool *pgxpool.Pool
	snap atomic.Pointer[catalogSnapshot]
}

// NewCatalog returns an empty catalog backed by pool. Call Reload or Seed before use.
func NewCatalog(pool *pgxpool.Pool) ReferenceCatalog {
	c := &catalog{pool: pool}
	c.snap.Store(buildSnapshot(nil))
	return c
}

// NewStaticCatalog returns a catalog over a fixed set of entries with no
// database behind it. Seed and Reload are no-ops.
func NewStaticCatalog(entries map[CatalogKind][]ReferenceEntry) ReferenceCatalog {
	c := &catalog{}
	c.snap.Store(buildSnapshot(entries))
	return c
}

func buildSnapshot(entries map[CatalogKind][]ReferenceEntry) *catalogSnapshot {
	snap := make(catalogSnapshot, len(AllCatalogs))
	for _, kind := range AllCatalogs {
		idx := &catalogIndex{
			byCode: make(map[string]ReferenceEntry),
			byID:   make(map[uuid.UUID]ReferenceEntry),
		}
		for _, e := range entries[kind] {
			idx.byCode[e.Code] = e
			idx.byID[e.ID] = e
			idx.sorted = append(idx.sorted, e)
		}
		sort.SliceStable(idx.sorted, func(i, j int) bool {
			if idx.sorted[i].Name != idx.sorted[j].Name {
				return idx.sorted[i].Name < idx.sorted[j].Name
			}
			return idx.sorted[i].Code < idx.sorted[j].Code
		})
		snap[kind] = idx
	}
	return &snap
}

func (c *catalog) index(kind CatalogKind) *catalogIndex {
	snap := *c.snap.Load()
	if idx, ok := snap[kind]; ok {
		return idx
	}
	return &catalogIndex{}
}

func (c *catalog) LookupByCode(kind CatalogKind, code string) (*ReferenceEntry, error) {
	e, ok := c.index(kind).byCode[code]
	if !ok {
		return nil, &ReferenceError{Kind: kind, Ref: code, Err: ErrReferenceNotFound}
	}
	return &e, nil
}

func (c *catalog) LookupByID(kind CatalogKind, id uuid.UUID) (*ReferenceEntry, error) {
	e, ok := c.index(kind).byID[id]
	if !ok {
		return nil, &ReferenceError{Kind: kind, Ref: id.String(), Err: ErrReferenceNotFound}
	}
	return &e, nil
}

func (c *catalog) Resolve(kind CatalogKind, ref string) (*ReferenceEntry, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return c.LookupByID(kind, id)
	}
	return c.LookupByCode(kind, ref)
}

func (c *catalog) ListAll(kind CatalogKind, activeOnly bool) []ReferenceEntry {
	src := c.index(kind).sorted
	out := make([]ReferenceEntry, 0, len(src))
	for _, e := range src {
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Seed inserts the built-in reference rows, skipping any id or code already
// present, then reloads the snapshot. Existing rows are never overwritten.
func (c *catalog) Seed(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, kind := range AllCatalogs {
		for _, e := range SeedEntries(kind) {
			_, err := tx.Exec(ctx, fmt.Sprintf(`
				INSERT INTO %s (id, code, name, description, is_active)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT DO NOTHING
			`, kind.table()), e.ID, e.Code, e.Name, e.Description, e.IsActive)
			if err != nil {
				return fmt.Errorf("failed to seed %s %s: %w", kind.Label(), e.Code, err)
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return c.Reload(ctx)
}

// Reload reads every catalog table and swaps in a fresh snapshot.
func (c *catalog) Reload(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	entries := make(map[CatalogKind][]ReferenceEntry, len(AllCatalogs))
	for _, kind := range AllCatalogs {
		rows, err := c.pool.Query(ctx, fmt.Sprintf(`
			SELECT id, code, name, description, is_active, created_at
			FROM %s
			ORDER BY name, code
		`, kind.table()))
		if err != nil {
			return fmt.Errorf("failed to query %s catalog: %w", kind.Label(), err)
		}
		for rows.Next() {
			var e ReferenceEntry
			if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.Description, &e.IsActive, &e.CreatedAt); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan %s: %w", kind.Label(), err)
			}
			entries[kind] = append(entries[kind], e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read %s catalog: %w", kind.Label(), err)
		}
	}
	c.snap.Store(buildSnapshot(entries))
	return nil
}
