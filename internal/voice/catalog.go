// Package voice holds the prebuilt voice catalogs and per-request voice
// assignment for speech generation.
package voice

// Category narrows a randomized pick to a pool.
type Category string

const (
	CategoryAny    Category = "any"
	CategoryMale   Category = "male"
	CategoryFemale Category = "female"
)

// The catalogs are immutable lookup tables. They are package-level data and
// must never be mutated at runtime; assignment state lives in Assigner.
var (
	Female = []string{
		"Zephyr", "Kore", "Leda", "Aoede", "Callirrhoe", "Autonoe",
		"Despina", "Erinome", "Laomedeia", "Achernar", "Pulcherrima",
		"Vindemiatrix", "Gacrux", "Sulafat",
	}

	Male = []string{
		"Puck", "Charon", "Fenrir", "Orus", "Enceladus", "Iapetus",
		"Umbriel", "Algieba", "Algenib", "Rasalgethi", "Alnilam",
		"Schedar", "Achird", "Zubenelgenubi", "Sadachbia", "Sadaltager",
	}
)

// All returns the combined pool, female first. The slice is freshly
// allocated so callers cannot corrupt the catalogs.
func All() []string {
	out := make([]string, 0, len(Female)+len(Male))
	out = append(out, Female...)
	out = append(out, Male...)
	return out
}

// Pool returns a fresh copy of the pool for a category.
func Pool(cat Category) []string {
	switch cat {
	case CategoryMale:
		return append([]string(nil), Male...)
	case CategoryFemale:
		return append([]string(nil), Female...)
	default:
		return All()
	}
}

// Known reports whether name is a catalog voice.
func Known(name string) bool {
	for _, v := range All() {
		if v == name {
			return true
		}
	}
	return false
}
