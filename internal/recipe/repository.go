package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// SearchParams describe a sampled search against the store.
// IncludeTags use AND semantics (all must be present), ExcludeTags use NOR
// semantics (none may be present). Results are deterministic for a fixed
// Seed over unchanged data.
type SearchParams struct {
	IncludeTags []string
	ExcludeTags []string
	ExcludeIDs  []string
	Query       string
	Limit       int
	Seed        int64
}

// Searcher is the store contract the planning pipeline consumes.
type Searcher interface {
	SearchSampled(ctx context.Context, params SearchParams) ([]Recipe, error)
}

const byIDCacheSize = 256

// Repository is a SQLite-backed repository for recipes with a small LRU
// cache in front of by-ID lookups.
type Repository struct {
	db    *sql.DB
	cache *lru.Cache[string, Recipe]
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) (*Repository, error) {
	cache, err := lru.New[string, Recipe](byIDCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe cache: %w", err)
	}
	return &Repository{db: d, cache: cache}, nil
}

// Save inserts or updates a recipe.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, name, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data, updated_at = excluded.updated_at`,
		rec.ID, rec.Name, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}

	r.cache.Remove(rec.ID)
	return nil
}

// Get retrieves a recipe by its ID, consulting the cache first.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	if rec, ok := r.cache.Get(id); ok {
		return &rec, nil
	}

	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM recipes WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}

	r.cache.Add(id, rec)
	return &rec, nil
}

// FindByName retrieves a recipe by exact name, case-insensitive. Returns
// (nil, nil) when no recipe matches.
func (r *Repository) FindByName(ctx context.Context, name string) (*Recipe, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM recipes WHERE LOWER(name) = LOWER(?) LIMIT 1`, name).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recipe by name: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	return &rec, nil
}

// List retrieves all recipes in the store.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		var rec Recipe
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			log.Warn().Str("recipe_id", id).Err(err).Msg("skipping recipe with invalid JSON")
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

// Count returns the number of recipes in the store.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

// SearchSampled returns up to Limit recipes matching the params, sampled
// deterministically: the match set is ordered by ID and shuffled with a
// seeded PRNG, so a fixed seed over unchanged data yields the same result.
func (r *Repository) SearchSampled(ctx context.Context, params SearchParams) ([]Recipe, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes for search: %w", err)
	}

	excluded := make(map[string]struct{}, len(params.ExcludeIDs))
	for _, id := range params.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	var matches []Recipe
	for _, rec := range all {
		if _, skip := excluded[rec.ID]; skip {
			continue
		}
		if !matchesTags(&rec, params.IncludeTags, params.ExcludeTags) {
			continue
		}
		if params.Query != "" && !matchesQuery(&rec, params.Query) {
			continue
		}
		matches = append(matches, rec)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	rng := rand.New(rand.NewSource(params.Seed))
	rng.Shuffle(len(matches), func(i, j int) {
		matches[i], matches[j] = matches[j], matches[i]
	})

	if params.Limit > 0 && len(matches) > params.Limit {
		matches = matches[:params.Limit]
	}
	return matches, nil
}

func matchesTags(rec *Recipe, include, exclude []string) bool {
	for _, tag := range include {
		if !rec.HasTag(tag) {
			return false
		}
	}
	for _, tag := range exclude {
		if rec.HasTag(tag) {
			return false
		}
	}
	return true
}

// matchesQuery keeps a recipe when any query token appears in its name,
// tags or ingredient names. The free-text query is best-effort by design:
// it narrows the pool, it never has to be satisfied exactly.
func matchesQuery(rec *Recipe, query string) bool {
	name := strings.ToLower(rec.Name)
	for _, token := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(name, token) {
			return true
		}
		for _, tag := range rec.Tags {
			if strings.Contains(strings.ToLower(tag), token) {
				return true
			}
		}
		for _, ing := range rec.Ingredients {
			if strings.Contains(strings.ToLower(ing.Name), token) {
				return true
			}
		}
	}
	return false
}
