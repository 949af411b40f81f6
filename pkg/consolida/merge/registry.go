// Package merge implements the consolidation core: style interning,
// row consolidation with duplicate removal, and conditional-format
// rule merging. The package is pure; it never touches the filesystem.
package merge

import "github.com/consolida-dev/consolida/pkg/consolida/models"

// StyleRegistry interns cell styles by content hash and assigns
// sequential master style IDs. A registry lives for exactly one
// consolidation run; IDs from different runs are not comparable.
type StyleRegistry struct {
	byHash    map[string]models.StyleID
	styles    []models.CellStyle
	collapsed int
}

// NewStyleRegistry returns a registry holding only the default style
// at ID 0.
func NewStyleRegistry() *StyleRegistry {
	r := &StyleRegistry{byHash: make(map[string]models.StyleID)}
	r.styles = append(r.styles, models.CellStyle{})
	r.byHash[models.CellStyle{}.Hash()] = 0
	return r
}

// Register interns style and returns its master StyleID. Equal styles
// always resolve to the same ID no matter which document they came
// from; the first registration assigns the ID and every further one
// counts as collapsed.
func (r *StyleRegistry) Register(style models.CellStyle) models.StyleID {
	h := style.Hash()
	if id, ok := r.byHash[h]; ok {
		r.collapsed++
		return id
	}
	id := models.StyleID(len(r.styles))
	r.styles = append(r.styles, style)
	r.byHash[h] = id
	return id
}

// Snapshot returns the interned styles in ID order, default style
// included at index 0.
func (r *StyleRegistry) Snapshot() []models.CellStyle {
	out := make([]models.CellStyle, len(r.styles))
	copy(out, r.styles)
	return out
}

// Len returns the number of interned styles, default style included.
func (r *StyleRegistry) Len() int { return len(r.styles) }

// Collapsed returns how many registrations resolved to an already
// interned style.
func (r *StyleRegistry) Collapsed() int { return r.collapsed }
