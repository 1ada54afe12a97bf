// Package search provides full-text search over the game catalog using
// Bleve. Games are indexed from their canonical metadata with faceted
// filtering on genres and tags, fuzzy matching, and match highlighting.
package search

import (
	"github.com/gamevaultapp/gamevault-server/internal/domain"
)

// GameDocument is the flattened shape of a game in the Bleve index. The
// canonical metadata record is denormalized so one query covers everything a
// user would type into the search box.
type GameDocument struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	FilePath    string   `json:"file_path"`
	Genres      []string `json:"genres,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Developers  []string `json:"developers,omitempty"`
	Publishers  []string `json:"publishers,omitempty"`

	ReleaseYear int     `json:"release_year,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	EarlyAccess bool    `json:"early_access"`

	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping. Bleve would otherwise index Go's capitalized
// struct field names.
func (d *GameDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":           d.ID,
		"title":        d.Title,
		"file_path":    d.FilePath,
		"early_access": d.EarlyAccess,
		"created_at":   d.CreatedAt,
		"updated_at":   d.UpdatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if len(d.Developers) > 0 {
		m["developers"] = d.Developers
	}
	if len(d.Publishers) > 0 {
		m["publishers"] = d.Publishers
	}
	if d.ReleaseYear > 0 {
		m["release_year"] = d.ReleaseYear
	}
	if d.Rating > 0 {
		m["rating"] = d.Rating
	}

	return m
}

// GameToDocument flattens a game and its canonical metadata into an
// indexable document. Games without canonical metadata still get indexed on
// their filename-derived fields.
func GameToDocument(game *domain.Game) *GameDocument {
	doc := &GameDocument{
		ID:          game.ID,
		Title:       game.EffectiveTitle(),
		FilePath:    game.FilePath,
		ReleaseYear: game.ReleaseYear,
		EarlyAccess: game.EarlyAccess,
		CreatedAt:   game.CreatedAt.UnixMilli(),
		UpdatedAt:   game.UpdatedAt.UnixMilli(),
	}

	meta := game.Metadata
	if meta == nil {
		return doc
	}

	if meta.Description != nil {
		doc.Description = *meta.Description
	}
	if meta.ReleaseDate != nil {
		doc.ReleaseYear = meta.ReleaseDate.Year()
	}
	if meta.Rating != nil {
		doc.Rating = *meta.Rating
	}
	if meta.EarlyAccess != nil {
		doc.EarlyAccess = *meta.EarlyAccess
	}
	for _, g := range meta.Genres {
		doc.Genres = append(doc.Genres, g.Name)
	}
	for _, t := range meta.Tags {
		doc.Tags = append(doc.Tags, t.Name)
	}
	for _, d := range meta.Developers {
		doc.Developers = append(doc.Developers, d.Name)
	}
	for _, p := range meta.Publishers {
		doc.Publishers = append(doc.Publishers, p.Name)
	}

	return doc
}
