package config

// Accent describes one supported accent: its request key, display
// name, and the Kokoro language code the engine is loaded with.
type Accent struct {
	Key  string
	Name string
	Lang string
}

// accentTable is the fixed set of accents the service knows about, in
// presentation order.
var accentTable = []Accent{
	{Key: "british", Name: "British English", Lang: "b"},
	{Key: "american", Name: "American English", Lang: "a"},
	{Key: "spanish", Name: "Spanish", Lang: "e"},
	{Key: "french", Name: "French", Lang: "f"},
	{Key: "italian", Name: "Italian", Lang: "i"},
}

// AccentTable returns the supported accents in presentation order.
func AccentTable() []Accent {
	return append([]Accent(nil), accentTable...)
}

// AccentKeys returns the keys of all supported accents in table order.
func AccentKeys() []string {
	keys := make([]string, len(accentTable))
	for i, a := range accentTable {
		keys[i] = a.Key
	}
	return keys
}

// LookupAccent finds the table entry for a key.
func LookupAccent(key string) (Accent, bool) {
	for _, a := range accentTable {
		if a.Key == key {
			return a, true
		}
	}
	return Accent{}, false
}
