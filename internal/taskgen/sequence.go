package taskgen

import (
	"math/rand"

	"github.com/fractalschool/recsys-backend/internal/types"
)

var defaultSequenceWords = []string{"alpha", "beta", "gamma", "delta"}

// WordSequence shuffles a word list and hides one entry; the student restores
// the missing word.
func WordSequence(task *types.Task, payload map[string]any, seed int64, student *types.User) (*Result, error) {
	words := payloadStrings(payload, "words")
	if len(words) == 0 {
		words = append([]string(nil), defaultSequenceWords...)
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	hidden := rng.Intn(len(words))
	answer := words[hidden]

	sequence := make([]string, len(words))
	for i, w := range words {
		if i == hidden {
			sequence[i] = "__"
		} else {
			sequence[i] = w
		}
	}

	return &Result{
		Content: map[string]any{
			"title":              payloadString(payload, "title", task.Title),
			"sequence":           sequence,
			"rendering_strategy": task.RenderingStrategy,
		},
		Answers: map[string]any{"missing": answer},
		Payload: map[string]any{"words": words, "hidden_index": hidden},
		Meta:    map[string]any{"type": "sequence"},
	}, nil
}
