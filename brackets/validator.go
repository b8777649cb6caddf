package brackets

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Dosada05/fightclub-brackets/models"
)

// ChainLink is the part of a match the chain check looks at. Round is text so
// that rows coming from outside the generator can be checked as-is.
type ChainLink struct {
	ID          int    `json:"id"`
	Round       string `json:"round"`
	NextMatchID *int   `json:"next_match_id"`
	Slots       int    `json:"slots"`
}

// Report is the outcome of a chain check. Errors is never nil.
type Report struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

func VerifyChain(matches []models.Match) Report {
	links := make([]ChainLink, len(matches))
	for i, m := range matches {
		links[i] = ChainLink{
			ID:          m.ID,
			Round:       strconv.Itoa(m.Round),
			NextMatchID: m.NextMatchID,
			Slots:       len(m.Participants),
		}
	}
	return VerifyChainLinks(links)
}

// VerifyChainLinks checks every structural invariant of a single-elimination
// chain and collects all violations instead of stopping at the first one.
func VerifyChainLinks(links []ChainLink) Report {
	errs := make([]string, 0)
	if len(links) == 0 {
		return Report{OK: false, Errors: append(errs, "bracket has no matches")}
	}

	rounds := make(map[int]int, len(links)) // match id -> round
	byRound := make(map[int][]ChainLink)
	seen := make(map[int]int, len(links))
	maxRound := 0
	parsedAll := true

	for _, l := range links {
		seen[l.ID]++
		if seen[l.ID] == 2 {
			errs = append(errs, fmt.Sprintf("match id %d is not unique", l.ID))
		}
		if l.Slots != 2 {
			errs = append(errs, fmt.Sprintf("match %d has %d participant slots, want 2", l.ID, l.Slots))
		}
		r, err := strconv.Atoi(strings.TrimSpace(l.Round))
		if err != nil {
			errs = append(errs, fmt.Sprintf("match %d has non-integer round %q", l.ID, l.Round))
			parsedAll = false
			continue
		}
		if r < 1 {
			errs = append(errs, fmt.Sprintf("match %d has round %d, rounds start at 1", l.ID, r))
		}
		rounds[l.ID] = r
		byRound[r] = append(byRound[r], l)
		if r > maxRound {
			maxRound = r
		}
	}
	if !parsedAll {
		return Report{OK: false, Errors: errs}
	}

	roundNums := make([]int, 0, len(byRound))
	for r := range byRound {
		roundNums = append(roundNums, r)
	}
	sort.Ints(roundNums)

	children := make(map[int]int, len(links))
	for _, r := range roundNums {
		for _, l := range byRound[r] {
			if r == maxRound {
				if l.NextMatchID != nil {
					errs = append(errs, fmt.Sprintf("final-round match %d points to next match %d, want none", l.ID, *l.NextMatchID))
				}
				continue
			}
			if l.NextMatchID == nil {
				errs = append(errs, fmt.Sprintf("match %d in round %d has no next match", l.ID, r))
				continue
			}
			nextRound, ok := rounds[*l.NextMatchID]
			if !ok {
				errs = append(errs, fmt.Sprintf("match %d points to missing match %d", l.ID, *l.NextMatchID))
				continue
			}
			if nextRound != r+1 {
				errs = append(errs, fmt.Sprintf("match %d in round %d points to match %d in round %d, want round %d", l.ID, r, *l.NextMatchID, nextRound, r+1))
				continue
			}
			children[*l.NextMatchID]++
		}
	}

	for _, r := range roundNums {
		if r == roundNums[0] {
			continue
		}
		for _, l := range byRound[r] {
			if c := children[l.ID]; c != 2 {
				errs = append(errs, fmt.Sprintf("match %d in round %d is fed by %d matches, want 2", l.ID, r, c))
			}
		}
	}
	if finals := len(byRound[maxRound]); finals != 1 {
		errs = append(errs, fmt.Sprintf("final round %d has %d matches, want 1", maxRound, finals))
	}
	for r := 1; r <= maxRound; r++ {
		if _, ok := byRound[r]; !ok {
			errs = append(errs, fmt.Sprintf("round %d has no matches", r))
		}
	}

	return Report{OK: len(errs) == 0, Errors: errs}
}
