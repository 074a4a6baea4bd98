package taskgen

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/fractalschool/recsys-backend/internal/types"
)

// ArithmeticAddition produces a seeded addition exercise with multiple-choice
// distractors clustered around the true sum.
func ArithmeticAddition(task *types.Task, payload map[string]any, seed int64, student *types.User) (*Result, error) {
	rng := rand.New(rand.NewSource(seed))

	minimum := payloadInt(payload, "min", 1)
	maximum := payloadInt(payload, "max", 10)
	if minimum > maximum {
		minimum, maximum = maximum, minimum
	}

	a := minimum + rng.Intn(maximum-minimum+1)
	b := minimum + rng.Intn(maximum-minimum+1)
	answer := a + b

	options := payloadInt(payload, "options", 4)
	if options < 1 {
		options = 1
	}
	choices := map[int]bool{answer: true}
	for len(choices) < options {
		delta := rng.Intn(11) - 5
		if delta == 0 {
			delta = []int{-3, -2, 2, 3}[rng.Intn(4)]
		}
		choices[answer+delta] = true
	}
	sorted := make([]int, 0, len(choices))
	for c := range choices {
		sorted = append(sorted, c)
	}
	sort.Ints(sorted)

	content := map[string]any{
		"title":              payloadString(payload, "title", task.Title),
		"question":           fmt.Sprintf("%d + %d", a, b),
		"choices":            sorted,
		"rendering_strategy": task.RenderingStrategy,
	}

	payload["operands"] = []int{a, b}
	payload["options"] = options

	return &Result{
		Content: content,
		Answers: map[string]any{"value": answer},
		Payload: payload,
		Meta: map[string]any{
			"type":       "arithmetic",
			"difficulty": payloadString(payload, "difficulty", "base"),
		},
	}, nil
}
