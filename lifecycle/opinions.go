// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"sort"

	"github.com/danielhkuo/quickly-decide/models"
)

// upsertOpinion replaces member's entry in place, or appends one.
// The whole selection is replaced; nothing is merged from the old entry.
func upsertOpinion(opinions []models.Opinion, member string, options []string) []models.Opinion {
	entry := models.Opinion{Member: member, Options: append([]string(nil), options...)}

	index := make(map[string]int, len(opinions))
	for i, op := range opinions {
		index[op.Member] = i
	}
	if i, ok := index[member]; ok {
		opinions[i] = entry
		return opinions
	}
	return append(opinions, entry)
}

// pruneOpinions drops opinions of non-members and strikes options the poll
// no longer offers. Opinions left with no options are dropped.
func pruneOpinions(p models.Poll) []models.Opinion {
	kept := make([]models.Opinion, 0, len(p.Opinions))
	for _, op := range p.Opinions {
		if !p.HasMember(op.Member) {
			continue
		}
		options := make([]string, 0, len(op.Options))
		for _, o := range op.Options {
			if p.HasOption(o) {
				options = append(options, o)
			}
		}
		if len(options) == 0 {
			continue
		}
		kept = append(kept, models.Opinion{Member: op.Member, Options: options})
	}
	return kept
}

// Tally counts, for each option, the members whose current opinion selects
// it. Rankings are by count, ties broken by the poll's option order.
func Tally(p models.Poll) models.TallyResponse {
	counts := make(map[string]int, len(p.Options))
	for _, op := range p.Opinions {
		for _, o := range op.Options {
			counts[o]++
		}
	}

	rankings := make([]models.OptionTally, len(p.Options))
	for i, o := range p.Options {
		rankings[i] = models.OptionTally{OptionID: o, Count: counts[o]}
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Count > rankings[j].Count
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	return models.TallyResponse{
		PollID:   p.ID,
		Status:   p.Status,
		Opinions: len(p.Opinions),
		Rankings: rankings,
	}
}
