// Package recommend maps a detected emotion to a music search.
package recommend

import "strings"

type Recommendation struct {
	Emotion     string   `json:"emotion" yaml:"emotion"`
	Query       string   `json:"query" yaml:"query"`
	Genres      []string `json:"genres" yaml:"genres"`
	Description string   `json:"description" yaml:"description"`
}

var byEmotion = map[string]Recommendation{
	"happy": {
		Query:       "happy upbeat",
		Genres:      []string{"Pop", "Dance", "Arabic Pop", "Khaleeji"},
		Description: "Upbeat, cheerful tracks",
	},
	"sad": {
		Query:       "sad mellow",
		Genres:      []string{"Acoustic", "Arabic Slow", "R&B", "Soft Rock"},
		Description: "Mellow, introspective songs",
	},
	"angry": {
		Query:       "intense aggressive",
		Genres:      []string{"Metal", "Arabic Rock", "Rap", "Alternative"},
		Description: "Intense, high-energy music",
	},
	"neutral": {
		Query:       "chill relaxing",
		Genres:      []string{"Jazz", "Arabic Instrumental", "Chill", "Lo-fi"},
		Description: "Balanced, easy-listening tracks",
	},
	"fear": {
		Query:       "dark suspenseful",
		Genres:      []string{"Ambient", "Arabic Tarab", "Soundtrack", "Dark Wave"},
		Description: "Dark, suspenseful atmosphere",
	},
	"surprise": {
		Query:       "unexpected dynamic",
		Genres:      []string{"Eclectic", "Arabic Fusion", "Electronic", "Funk"},
		Description: "Unexpected, dynamic compositions",
	},
}

// ForEmotion is case-insensitive; unmapped labels such as "disgust" return false.
func ForEmotion(label string) (Recommendation, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	r, ok := byEmotion[key]
	if !ok {
		return Recommendation{}, false
	}
	r.Emotion = key
	r.Genres = append([]string(nil), r.Genres...)
	return r, true
}
