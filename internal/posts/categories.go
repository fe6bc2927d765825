// internal/posts/categories.go
package posts

// categoryLabels maps URL-safe slugs to the stored classification labels.
// Unrecognized slugs mean "no category filter".
var categoryLabels = map[string]string{
	"2d-art":         "2D art",
	"3d-model":       "3D model",
	"graphic-design": "Graphic Design",
	"animation":      "Animation",
	"game":           "Game",
	"ux-ui":          "UX/UI design",
}

// CategoryLabel resolves a slug to its label; ok is false for unknown slugs.
func CategoryLabel(slug string) (string, bool) {
	label, ok := categoryLabels[slug]
	return label, ok
}

// Categories lists every slug/label pair for the explore surface.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(categoryLabels))
	for _, slug := range []string{"2d-art", "3d-model", "graphic-design", "animation", "game", "ux-ui"} {
		out = append(out, CategoryInfo{Slug: slug, Label: categoryLabels[slug]})
	}
	return out
}

type CategoryInfo struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// IsValidCategoryLabel reports whether a label is one of the fixed set.
func IsValidCategoryLabel(label string) bool {
	for _, l := range categoryLabels {
		if l == label {
			return true
		}
	}
	return false
}
