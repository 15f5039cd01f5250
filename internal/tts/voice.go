package tts

// DefaultVoice is the voice used when a request omits one.
const DefaultVoice = "af_heart"

// VoiceCatalog groups the known Kokoro voice identifiers by gender.
// Every voice works with every accent; the grouping is presentation
// metadata for the /voices endpoint and the CLI listing.
type VoiceCatalog struct {
	Female []string `json:"female"`
	Male   []string `json:"male"`
	Other  []string `json:"other"`
}

var catalog = VoiceCatalog{
	Female: []string{"af_heart", "af_allison", "af_monica", "af_sara"},
	Male:   []string{"am_aaron", "am_eddie", "am_harold", "am_louis", "am_mike"},
	Other:  []string{"af_andrew"},
}

// Voices returns the static voice catalog.
func Voices() VoiceCatalog {
	return VoiceCatalog{
		Female: append([]string(nil), catalog.Female...),
		Male:   append([]string(nil), catalog.Male...),
		Other:  append([]string(nil), catalog.Other...),
	}
}

// VoiceCount reports the number of cataloged voices.
func VoiceCount() int {
	return len(catalog.Female) + len(catalog.Male) + len(catalog.Other)
}

// KnownVoice reports whether id appears in the catalog. Engines may
// expose more voices than the catalog lists, so an unknown id is not a
// validation failure; this exists for the CLI listing and tests.
func KnownVoice(id string) bool {
	for _, group := range [][]string{catalog.Female, catalog.Male, catalog.Other} {
		for _, v := range group {
			if v == id {
				return true
			}
		}
	}
	return false
}
