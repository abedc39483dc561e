package database

import (
	"time"

	"github.com/google/uuid"
)

// Movie is a cataloged film. Actors and Genres are many-to-many
// associations backed by the movie_actors and movie_genres join tables;
// the inverse sides (Actor.Movies, Genre.Movies) map the same tables, so
// an edge written from either side is visible from both.
type Movie struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"index;not null" json:"title"`
	Summary     string `gorm:"type:text" json:"summary"`
	PosterRef   string `json:"poster_ref"` // empty until an image is attached
	Rating      int    `json:"rating"`
	ReleaseYear int    `json:"release_year"`
	Favorite    bool   `gorm:"default:false" json:"favorite"`

	Actors []*Actor `gorm:"many2many:movie_actors" json:"actors,omitempty"`
	Genres []*Genre `gorm:"many2many:movie_genres" json:"genres,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Movie
func (Movie) TableName() string {
	return "movies"
}

// NewMovie creates a movie with a generated id
func NewMovie(title, summary, posterRef string, rating, releaseYear int) *Movie {
	return &Movie{
		ID:          uuid.NewString(),
		Title:       title,
		Summary:     summary,
		PosterRef:   posterRef,
		Rating:      rating,
		ReleaseYear: releaseYear,
	}
}

// Equal reports identity equality. Two entities are the same iff their
// ids match; content fields do not participate.
func (m *Movie) Equal(other *Movie) bool {
	return other != nil && m.ID == other.ID
}

// HasActor reports whether the movie references the given actor id
func (m *Movie) HasActor(actorID string) bool {
	for _, a := range m.Actors {
		if a.ID == actorID {
			return true
		}
	}
	return false
}

// HasGenre reports whether the movie references the given genre id
func (m *Movie) HasGenre(genreID string) bool {
	for _, g := range m.Genres {
		if g.ID == genreID {
			return true
		}
	}
	return false
}

// Actor is a person appearing in movies
type Actor struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"index;not null" json:"name"`
	Summary  string `gorm:"type:text" json:"summary"`
	PhotoRef string `json:"photo_ref"`
	Favorite bool   `gorm:"default:false" json:"favorite"`

	Movies []*Movie `gorm:"many2many:movie_actors" json:"movies,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Actor
func (Actor) TableName() string {
	return "actors"
}

// NewActor creates an actor with a generated id
func NewActor(name, summary, photoRef string) *Actor {
	return &Actor{
		ID:       uuid.NewString(),
		Name:     name,
		Summary:  summary,
		PhotoRef: photoRef,
	}
}

// Equal reports identity equality by id
func (a *Actor) Equal(other *Actor) bool {
	return other != nil && a.ID == other.ID
}

// HasMovie reports whether the actor is linked to the given movie id
func (a *Actor) HasMovie(movieID string) bool {
	for _, m := range a.Movies {
		if m.ID == movieID {
			return true
		}
	}
	return false
}

// Genre is a film category. The Movies collection is the owning side of
// the movie_genres association: assigning it updates the inverse
// Movie.Genres view on the next fetch.
type Genre struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"index;not null" json:"name"`
	Summary  string `gorm:"type:text" json:"summary"`
	Favorite bool   `gorm:"default:false" json:"favorite"`

	Movies []*Movie `gorm:"many2many:movie_genres" json:"movies,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Genre
func (Genre) TableName() string {
	return "genres"
}

// NewGenre creates a genre with a generated id
func NewGenre(name, summary string) *Genre {
	return &Genre{
		ID:      uuid.NewString(),
		Name:    name,
		Summary: summary,
	}
}

// Equal reports identity equality by id
func (g *Genre) Equal(other *Genre) bool {
	return other != nil && g.ID == other.ID
}

// HasMovie reports whether the genre is linked to the given movie id
func (g *Genre) HasMovie(movieID string) bool {
	for _, m := range g.Movies {
		if m.ID == movieID {
			return true
		}
	}
	return false
}
