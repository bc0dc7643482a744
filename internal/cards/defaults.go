// internal/cards/defaults.go
//
// Built-in card sets, used when no catalog can be loaded.

package cards

// DefaultSetID is the card set used whenever the provider cannot be reached.
const DefaultSetID = "icons"

// DefaultSets returns the built-in card sets. The first one is the fallback.
// A fresh copy is returned on each call so callers may not mutate the table.
func DefaultSets() []CardSet {
	return []CardSet{
		{
			ID:          DefaultSetID,
			Name:        "Icons",
			Description: "Classic icon set",
			Faces: []Face{
				{Key: "mdi-star", Color: "secondary"},
				{Key: "mdi-heart", Color: "accent"},
				{Key: "mdi-bell", Color: "primary"},
				{Key: "mdi-music", Color: "secondary"},
				{Key: "mdi-cube", Color: "accent"},
				{Key: "mdi-car", Color: "primary"},
				{Key: "mdi-gift", Color: "secondary"},
				{Key: "mdi-cake", Color: "accent"},
				{Key: "mdi-airplane", Color: "primary"},
				{Key: "mdi-baseball", Color: "secondary"},
				{Key: "mdi-crown", Color: "accent"},
				{Key: "mdi-robot", Color: "primary"},
				{Key: "mdi-google", Color: "secondary"},
				{Key: "mdi-flash", Color: "accent"},
				{Key: "mdi-food-apple", Color: "primary"},
				{Key: "mdi-soccer", Color: "secondary"},
				{Key: "mdi-swim", Color: "accent"},
				{Key: "mdi-tennis", Color: "primary"},
			},
		},
		{
			ID:          "animals",
			Name:        "Animals",
			Description: "Friendly animal icons",
			Faces: []Face{
				{Key: "mdi-cat", Color: "primary"},
				{Key: "mdi-dog", Color: "secondary"},
				{Key: "mdi-rabbit", Color: "accent"},
				{Key: "mdi-cow", Color: "primary"},
				{Key: "mdi-duck", Color: "secondary"},
				{Key: "mdi-pig", Color: "accent"},
				{Key: "mdi-sheep", Color: "primary"},
				{Key: "mdi-fish", Color: "secondary"},
			},
		},
	}
}

// DefaultSet returns the fallback card set.
func DefaultSet() CardSet { return DefaultSets()[0] }
