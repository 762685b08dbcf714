package dedup

import "chemradar/internal/domain"

// Dedupe collapses a batch of candidates to one per identifier. The first
// occurrence of each identifier wins and the relative order of retained
// elements matches the input.
func Dedupe(candidates []domain.Article) []domain.Article {
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]domain.Article, 0, len(candidates))

	for _, candidate := range candidates {
		key := domain.Identifier(candidate)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, candidate)
	}

	return unique
}
