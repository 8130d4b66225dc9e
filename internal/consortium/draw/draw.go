// Package draw computes consortium contemplation results as a pure function
// of the published lottery result and the group size, so any third party can
// replay the computation from public data.
package draw

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNoDigits             = errors.New("seed_has_no_digits")
	ErrInvalidGroupSize     = errors.New("invalid_group_size")
	ErrNoActiveParticipants = errors.New("no_active_participants")
)

// Candidate is one draw-eligible participant as seen by the verifier.
type Candidate struct {
	LuckyNumber int
	Active      bool
}

// Result is the replayable outcome of one draw.
type Result struct {
	Seed          uint64
	WinningNumber int
	LuckyNumber   int
	// Fallback is true when the numerically winning lucky number belonged to
	// no active participant and the first active participant in lucky-number
	// order was selected instead. Recorded so auditors can see the fallback
	// policy, not the raw formula, picked the winner.
	Fallback bool
}

// Seed extracts the numeric digits from a lottery result string and parses
// them as the draw seed. "Conc. 2.654 - 57342" yields 265457342.
func Seed(lotteryResult string) (uint64, error) {
	var digits strings.Builder
	for _, r := range lotteryResult {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, ErrNoDigits
	}

	// Overflow on absurdly long results is a caller input problem, keep only
	// the last 18 digits so parsing stays well-defined.
	raw := digits.String()
	if len(raw) > 18 {
		raw = raw[len(raw)-18:]
	}
	return strconv.ParseUint(raw, 10, 64)
}

// WinningNumber maps a seed onto the group's lucky-number range 1..size.
func WinningNumber(seed uint64, size int) (int, error) {
	if size <= 0 {
		return 0, ErrInvalidGroupSize
	}
	return int(seed%uint64(size)) + 1, nil
}

// Resolve picks the winner among the candidates. The exact lucky-number match
// wins when that participant is still active; otherwise the first active
// candidate in ascending lucky-number order is contemplated and the result is
// flagged as a fallback.
func Resolve(seed uint64, size int, candidates []Candidate) (Result, error) {
	winning, err := WinningNumber(seed, size)
	if err != nil {
		return Result{}, err
	}

	result := Result{Seed: seed, WinningNumber: winning}

	fallback := 0
	for _, candidate := range candidates {
		if !candidate.Active {
			continue
		}
		if candidate.LuckyNumber == winning {
			result.LuckyNumber = winning
			return result, nil
		}
		if fallback == 0 || candidate.LuckyNumber < fallback {
			fallback = candidate.LuckyNumber
		}
	}

	if fallback == 0 {
		return Result{}, ErrNoActiveParticipants
	}
	result.LuckyNumber = fallback
	result.Fallback = true
	return result, nil
}

// Explain renders the replay instructions recorded on the draw so anyone can
// verify the outcome against the published lottery result.
func Explain(lotteryResult string, result Result, size int) string {
	explanation := fmt.Sprintf(
		"seed %d extracted from lottery result %q; winning number = (%d mod %d) + 1 = %d",
		result.Seed, lotteryResult, result.Seed, size, result.WinningNumber,
	)
	if result.Fallback {
		explanation += fmt.Sprintf(
			"; lucky number %d had no active holder, fell back to first active participant in lucky-number order (%d)",
			result.WinningNumber, result.LuckyNumber,
		)
	}
	return explanation
}
