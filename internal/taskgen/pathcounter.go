package taskgen

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/fractalschool/recsys-backend/internal/types"
)

// PathCounter generates "program counting" puzzles: a small performer with
// add/multiply commands, a start and target value, and a step bound. The
// answer is the number of distinct command sequences of length <= bound that
// reach the target, optionally constrained by a command that must appear or
// one that is forbidden.

const (
	pathCounterMaxTries = 50
	maxVisitedStates    = 120
	maxLayerWidth       = 40
)

type command struct {
	name        string
	description string
	addend      int
	multiplier  int
}

func addCommand(step int) command {
	return command{
		name:        fmt.Sprintf("add %d", step),
		description: fmt.Sprintf("adds %d to the number", step),
		addend:      step,
	}
}

func mulCommand(factor int) command {
	return command{
		name:        fmt.Sprintf("multiply by %d", factor),
		description: fmt.Sprintf("multiplies the number by %d", factor),
		multiplier:  factor,
	}
}

func (c command) execute(value int) int {
	if c.multiplier != 0 {
		return value * c.multiplier
	}
	return value + c.addend
}

func (c command) isAddition() bool { return c.multiplier == 0 }

// chooseCommands picks 2-3 distinct commands, always including at least one
// addition so every state space has fine-grained steps.
func chooseCommands(rng *rand.Rand) []command {
	increments := []int{1, 2, 3, 4, 5, 6}
	multipliers := []int{2, 3}
	targetCount := 2 + rng.Intn(2)

	var commands []command
	names := map[string]bool{}
	add := func(cmd command) {
		if !names[cmd.name] {
			commands = append(commands, cmd)
			names[cmd.name] = true
		}
	}

	for len(commands) < targetCount {
		remaining := targetCount - len(commands)
		needAdd := true
		for _, cmd := range commands {
			if cmd.isAddition() {
				needAdd = false
				break
			}
		}

		if needAdd || remaining == 1 || rng.Float64() < 0.6 {
			add(addCommand(increments[rng.Intn(len(increments))]))
		} else {
			add(mulCommand(multipliers[rng.Intn(len(multipliers))]))
		}
	}
	return commands
}

type transition struct {
	Command string `json:"command"`
	Result  int    `json:"result"`
}

// exploreStates walks the reachable state space breadth-first to bound its
// shape before committing to a configuration. Values above limitValue are
// pruned, as are self-loops.
func exploreStates(commands []command, start, maxDepth, limitValue int) (transitions map[int][]transition, visited map[int]bool, depthReached, maxWidth int) {
	layers := [][]int{{start}}
	transitions = map[int][]transition{}
	visited = map[int]bool{start: true}

	for depth := 0; depth < maxDepth; depth++ {
		var next []int
		for _, value := range layers[depth] {
			var available []transition
			for _, cmd := range commands {
				nextValue := cmd.execute(value)
				if nextValue > limitValue || nextValue == value {
					continue
				}
				available = append(available, transition{Command: cmd.name, Result: nextValue})
				if !visited[nextValue] {
					visited[nextValue] = true
					next = append(next, nextValue)
				}
			}
			if len(available) > 0 {
				transitions[value] = available
			}
		}
		if len(next) == 0 {
			break
		}
		layers = append(layers, next)
	}

	depthReached = len(layers) - 1
	maxWidth = 1
	for _, layer := range layers {
		if len(layer) > maxWidth {
			maxWidth = len(layer)
		}
	}
	return transitions, visited, depthReached, maxWidth
}

type pathKey struct {
	value    int
	steps    int
	usedMask int
}

// countPaths counts command sequences of length <= maxDepth that transform
// start into target. Memoized over (value, remaining steps, bitmask of
// commands used); a sequence only counts if it used every command in
// requiredMask and no command in forbiddenMask.
func countPaths(commands []command, start, target, maxDepth, limitValue, requiredMask, forbiddenMask int) int {
	memo := map[pathKey]int{}

	var visit func(value, stepsLeft, usedMask int) int
	visit = func(value, stepsLeft, usedMask int) int {
		if value == target {
			if usedMask&requiredMask == requiredMask {
				return 1
			}
			return 0
		}
		if stepsLeft == 0 {
			return 0
		}
		key := pathKey{value: value, steps: stepsLeft, usedMask: usedMask}
		if cached, ok := memo[key]; ok {
			return cached
		}

		total := 0
		for index, cmd := range commands {
			bit := 1 << index
			if forbiddenMask&bit != 0 {
				continue
			}
			nextValue := cmd.execute(value)
			if nextValue > limitValue || nextValue == value {
				continue
			}
			total += visit(nextValue, stepsLeft-1, usedMask|bit)
		}
		memo[key] = total
		return total
	}

	return visit(start, maxDepth, 0)
}

// pickRequired searches for a command whose mandatory inclusion keeps the
// count positive, preferring one that strictly lowers it so the constraint
// actually bites. Returns a zero mask when no candidate works.
func pickRequired(rng *rand.Rand, commands []command, start, target, maxDepth, limitValue, baseCount int) (mask, index, count int) {
	indices := rng.Perm(len(commands))

	type record struct{ mask, index, count int }
	var preferred, fallback []record

	for _, i := range indices {
		m := 1 << i
		c := countPaths(commands, start, target, maxDepth, limitValue, m, 0)
		if c > 0 {
			rec := record{mask: m, index: i, count: c}
			fallback = append(fallback, rec)
			if c < baseCount {
				preferred = append(preferred, rec)
			}
		}
	}

	if len(preferred) > 0 {
		r := preferred[0]
		return r.mask, r.index, r.count
	}
	if len(fallback) > 0 {
		r := fallback[0]
		return r.mask, r.index, r.count
	}
	return 0, -1, baseCount
}

// pickForbidden mirrors pickRequired for an excluded command; it never
// overlaps the required mask and only accepts counts strictly between zero
// and the current count.
func pickForbidden(rng *rand.Rand, commands []command, start, target, maxDepth, limitValue, requiredMask, baseCount int) (mask, index, count int) {
	indices := rng.Perm(len(commands))

	for _, i := range indices {
		m := 1 << i
		if requiredMask&m != 0 {
			continue
		}
		c := countPaths(commands, start, target, maxDepth, limitValue, requiredMask, m)
		if c > 0 && c < baseCount {
			return m, i, c
		}
	}
	return 0, -1, baseCount
}

func buildReferenceProgram(commands []command) []map[string]any {
	out := make([]map[string]any, len(commands))
	for i, cmd := range commands {
		out[i] = map[string]any{
			"index":       i + 1,
			"name":        cmd.name,
			"description": cmd.description,
		}
	}
	return out
}

func buildStatement(commands []command, start, target, maxDepth, requiredIndex, forbiddenIndex int) string {
	lines := []string{"The performer transforms a natural number using the commands:"}
	for i, cmd := range commands {
		lines = append(lines, fmt.Sprintf("%d. %s — %s.", i+1, cmd.name, cmd.description))
	}

	question := fmt.Sprintf(
		"How many distinct programs transform the number %d into %d using at most %d commands?",
		start, target, maxDepth,
	)
	if requiredIndex >= 0 {
		question += fmt.Sprintf(" The program must contain the command %q at least once.", commands[requiredIndex].name)
	}
	if forbiddenIndex >= 0 {
		question += fmt.Sprintf(" The command %q must not be used.", commands[forbiddenIndex].name)
	}
	lines = append(lines, question)
	return strings.Join(lines, "\n")
}

// PathCounter is the informatics program-counting generator. It retries with
// fresh random configurations until the puzzle has a strictly positive answer
// and a non-degenerate state space; exhausting the retry budget means the
// payload/seed combination is broken and generation fails outright.
func PathCounter(task *types.Task, payload map[string]any, seed int64, student *types.User) (*Result, error) {
	rng := rand.New(rand.NewSource(seed))

	for try := 0; try < pathCounterMaxTries; try++ {
		commands := chooseCommands(rng)
		start := payloadIntOr(payload, "start", func() int { return 2 + rng.Intn(8) })
		maxDepth := payloadIntOr(payload, "max_depth", func() int { return 4 + rng.Intn(4) })
		target := payloadIntOr(payload, "target", func() int { return start + 5 + rng.Intn(56) })
		limitValue := payloadIntOr(payload, "limit_value", func() int {
			limit := target + 3 + rng.Intn(10)
			if limit < target+5 {
				limit = target + 5
			}
			return limit
		})

		transitions, visited, depthReached, maxWidth := exploreStates(commands, start, maxDepth, limitValue)
		if depthReached == 0 || len(visited) > maxVisitedStates || maxWidth > maxLayerWidth {
			continue
		}

		totalPaths := countPaths(commands, start, target, maxDepth, limitValue, 0, 0)
		if totalPaths <= 0 {
			continue
		}

		requiredMask, requiredIndex, requiredCount := pickRequired(rng, commands, start, target, maxDepth, limitValue, totalPaths)
		if requiredMask != 0 {
			totalPaths = requiredCount
		}
		forbiddenMask, forbiddenIndex, forbiddenCount := pickForbidden(rng, commands, start, target, maxDepth, limitValue, requiredMask, totalPaths)
		if forbiddenMask != 0 {
			totalPaths = forbiddenCount
		}

		finalPaths := countPaths(commands, start, target, maxDepth, limitValue, requiredMask, forbiddenMask)
		if finalPaths <= 0 {
			continue
		}

		reference := buildReferenceProgram(commands)
		content := map[string]any{
			"title":              task.Title,
			"statement":          buildStatement(commands, start, target, maxDepth, requiredIndex, forbiddenIndex),
			"commands":           reference,
			"start":              start,
			"target":             target,
			"max_steps":          maxDepth,
			"rendering_strategy": task.RenderingStrategy,
		}

		serialisedTransitions := map[string][]transition{}
		for value, list := range transitions {
			serialisedTransitions[strconv.Itoa(value)] = list
		}
		payload["start"] = start
		payload["target"] = target
		payload["max_depth"] = maxDepth
		payload["limit_value"] = limitValue
		payload["commands"] = reference
		payload["transitions"] = serialisedTransitions
		payload["required_command_index"] = indexOrNil(requiredIndex)
		payload["forbidden_command_index"] = indexOrNil(forbiddenIndex)

		return &Result{
			Content: content,
			Answers: map[string]any{"paths": finalPaths},
			Payload: payload,
			Meta: map[string]any{
				"type":          "informatics",
				"subtype":       "path-counter",
				"max_depth":     maxDepth,
				"state_count":   len(visited),
				"depth_reached": depthReached,
				"max_width":     maxWidth,
			},
		}, nil
	}

	return nil, fmt.Errorf("no valid path-counter configuration after %d tries", pathCounterMaxTries)
}

func indexOrNil(index int) any {
	if index < 0 {
		return nil
	}
	return index
}
