package catalogmodule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/kinotek/kinotek/internal/database"
)

// ActorRepository owns the actors table exclusively, serialized per
// instance like MovieRepository
type ActorRepository struct {
	db     *gorm.DB
	logger hclog.Logger
	mu     sync.Mutex
}

// NewActorRepository creates an actor repository
func NewActorRepository(db *gorm.DB, logger hclog.Logger) *ActorRepository {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ActorRepository{db: db, logger: logger}
}

// FetchAll returns every actor ordered by name ascending, id ascending.
// Read failures are logged and degrade to an empty list.
func (r *ActorRepository) FetchAll(ctx context.Context) []*database.Actor {
	return r.Fetch(ctx, ActorFilter{})
}

// Fetch returns actors matching the filter
func (r *ActorRepository) Fetch(ctx context.Context, filter ActorFilter) []*database.Actor {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := r.db.WithContext(ctx).
		Preload("Movies").
		Order("LOWER(name) ASC, id ASC")

	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", containsPattern(filter.Name))
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(summary) LIKE ?", pattern, pattern)
	}
	if filter.Favorite != nil {
		query = query.Where("favorite = ?", *filter.Favorite)
	}

	var actors []*database.Actor
	if err := query.Find(&actors).Error; err != nil {
		r.logger.Error("actor fetch failed, returning empty result", "error", err)
		return []*database.Actor{}
	}

	return filterActorsByMovies(actors, filter.MovieIDs)
}

// Get returns the actor with the given id or ErrNotFound
func (r *ActorRepository) Get(ctx context.Context, id string) (*database.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(ctx, id)
}

func (r *ActorRepository) get(ctx context.Context, id string) (*database.Actor, error) {
	var actor database.Actor
	err := r.db.WithContext(ctx).
		Preload("Movies").
		First(&actor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("actor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load actor %s: %w", id, err)
	}
	return &actor, nil
}

// Add inserts the actor, committing immediately
func (r *ActorRepository) Add(ctx context.Context, actor *database.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if actor.ID == "" {
		actor.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(actor).Error; err != nil {
		return fatal("actor insert", err)
	}
	return nil
}

// ActorUpdate is a partial field set for Update. Nil pointers leave the
// prior value; a nil or empty Movies slice means "no relationship
// change" (use ClearMovies to empty it on purpose).
type ActorUpdate struct {
	Name     *string
	Summary  *string
	PhotoRef *string
	Favorite *bool
	Movies   []*database.Movie
}

// Update applies the partial field set and commits immediately
func (r *ActorRepository) Update(ctx context.Context, id string, upd ActorUpdate) (*database.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Summary != nil {
		fields["summary"] = *upd.Summary
	}
	if upd.PhotoRef != nil {
		fields["photo_ref"] = *upd.PhotoRef
	}
	if upd.Favorite != nil {
		fields["favorite"] = *upd.Favorite
	}
	if len(fields) > 0 {
		if err := r.db.WithContext(ctx).Model(actor).Updates(fields).Error; err != nil {
			return nil, fatal("actor update", err)
		}
	}

	if len(upd.Movies) > 0 {
		if err := r.db.WithContext(ctx).Model(actor).Association("Movies").Replace(upd.Movies); err != nil {
			return nil, fatal("actor movie relationship update", err)
		}
	}

	return r.get(ctx, id)
}

// ClearMovies empties the actor's movie relationship
func (r *ActorRepository) ClearMovies(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(actor).Association("Movies").Clear(); err != nil {
		return fatal("actor movie relationship clear", err)
	}
	return nil
}

// Delete removes the actor and detaches it from every movie that
// referenced it
func (r *ActorRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(actor).Association("Movies").Clear(); err != nil {
		return fatal("actor movie detach", err)
	}
	if err := r.db.WithContext(ctx).Delete(&database.Actor{}, "id = ?", id).Error; err != nil {
		return fatal("actor delete", err)
	}
	return nil
}

// ToggleFavorite flips the favorite flag and commits immediately
func (r *ActorRepository) ToggleFavorite(ctx context.Context, id string) (*database.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := !actor.Favorite
	if err := r.db.WithContext(ctx).Model(actor).Update("favorite", next).Error; err != nil {
		return nil, fatal("actor favorite toggle", err)
	}
	actor.Favorite = next
	return actor, nil
}
