// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. Behaviour that belongs to the
// data itself (tag parsing, patch fields) lives next to the struct.
package model

import (
	"strings"
	"time"
)

// Placeholders stored when a meme is created without the matching form field.
const (
	DefaultTitle       = "New Meme"
	DefaultAuthor      = "Anonymous"
	DefaultDescription = "No description provided"
)

// Meme is one gallery item.
//
// TIMESTAMPS AS int64:
// CreatedAt and UpdatedAt are Unix milliseconds, not time.Time. The browser
// client does date math with JavaScript's Date.now(), and DynamoDB stores
// numbers natively, so milliseconds travel through every layer unchanged.
//
// TAGS ARE NEVER nil:
// A nil slice marshals to `null`; an empty slice marshals to `[]`. Clients
// iterate tags without a null check, so constructors normalise nil to []string{}.
type Meme struct {
	ID          string   `json:"id"          dynamodbav:"id"`
	Title       string   `json:"title"       dynamodbav:"title"`
	Author      string   `json:"author"      dynamodbav:"author"`
	Description string   `json:"description" dynamodbav:"description"`
	Tags        []string `json:"tags"        dynamodbav:"tags"`
	ImageURL    string   `json:"imageUrl"    dynamodbav:"imageUrl"`
	Likes       int64    `json:"likes"       dynamodbav:"likes"`
	Featured    bool     `json:"featured"    dynamodbav:"featured"`
	CreatedAt   int64    `json:"createdAt"   dynamodbav:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"   dynamodbav:"updatedAt"`
}

// NowMillis returns the current time as Unix milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// ParseTags splits a comma-separated string into trimmed, non-empty tags.
// Order and duplicates are preserved. The result is never nil.
//
//	ParseTags("funny, cats ,  ") → ["funny", "cats"]
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// MemePatch is a merge-patch for a meme: nil fields are left untouched.
//
// WHY POINTERS?
// The zero value of a string is "", which is also a legal (if odd) title.
// A pointer separates "not supplied" (nil) from "supplied" (non-nil).
// Featured only ever moves false → true, but it is still a pointer so an
// update that does not mention it leaves it alone.
type MemePatch struct {
	Title       *string
	Author      *string
	Description *string
	Tags        []string // nil = untouched
	ImageURL    *string
	Featured    *bool
}

// Stored attribute names. Both backends use them as column or attribute keys.
const (
	FieldTitle       = "title"
	FieldAuthor      = "author"
	FieldDescription = "description"
	FieldTags        = "tags"
	FieldImageURL    = "imageUrl"
	FieldFeatured    = "featured"
)

// Fields returns the set fields keyed by stored attribute name.
// An empty patch yields an empty (non-nil) map.
func (p MemePatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Title != nil {
		fields[FieldTitle] = *p.Title
	}
	if p.Author != nil {
		fields[FieldAuthor] = *p.Author
	}
	if p.Description != nil {
		fields[FieldDescription] = *p.Description
	}
	if p.Tags != nil {
		fields[FieldTags] = p.Tags
	}
	if p.ImageURL != nil {
		fields[FieldImageURL] = *p.ImageURL
	}
	if p.Featured != nil {
		fields[FieldFeatured] = *p.Featured
	}
	return fields
}

// Apply writes the set fields onto m. Stores that cannot patch server-side
// (and test fakes) use it to mirror the same merge semantics.
func (p MemePatch) Apply(m *Meme) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Author != nil {
		m.Author = *p.Author
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Tags != nil {
		m.Tags = p.Tags
	}
	if p.ImageURL != nil {
		m.ImageURL = *p.ImageURL
	}
	if p.Featured != nil {
		m.Featured = *p.Featured
	}
}
