package resolver

import (
	"sort"
	"strings"
)

// Weights tunes module selection. Higher scores win.
type Weights struct {
	RelativeBonus int // candidate starts with a relative marker
	PackageBonus  int // candidate lies in the consumer's package
	DepthPenalty  int // per namespace separator in the candidate
}

func DefaultWeights() Weights {
	return Weights{RelativeBonus: 10, PackageBonus: 5, DepthPenalty: 1}
}

type ScoredModule struct {
	Module string
	Score  int
}

// ScoreModule scores one candidate for a consumer living in consumerPackage.
func ScoreModule(candidate, consumerPackage string, w Weights) int {
	score := 0
	if strings.HasPrefix(candidate, ".") {
		score += w.RelativeBonus
	}
	if sharesPackage(candidate, consumerPackage) {
		score += w.PackageBonus
	}
	score -= w.DepthPenalty * strings.Count(candidate, ".")
	return score
}

// RankModules orders candidates by score descending, then by module name
// ascending. Duplicate candidates are collapsed.
func RankModules(candidates []string, consumerPackage string, w Weights) []ScoredModule {
	seen := make(map[string]struct{}, len(candidates))
	ranked := make([]ScoredModule, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		ranked = append(ranked, ScoredModule{Module: c, Score: ScoreModule(c, consumerPackage, w)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Module < ranked[j].Module
	})
	return ranked
}

// ChooseModule selects the module that should provide symbol. The result
// depends only on its arguments; ok is false for an empty candidate set.
func ChooseModule(symbol string, candidates []string, consumerPackage string, w Weights) (ScoredModule, bool) {
	ranked := RankModules(candidates, consumerPackage, w)
	if len(ranked) == 0 {
		return ScoredModule{}, false
	}
	return ranked[0], true
}

func sharesPackage(candidate, pkg string) bool {
	if pkg == "" {
		return false
	}
	return candidate == pkg || strings.HasPrefix(candidate, pkg+".")
}
