package service

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// SearchResult is a single fuzzy match.
type SearchResult struct {
	Entity Entity  `json:"entity"`
	Score  float64 `json:"score"`
}

// FindEntitiesBySimilarity searches entities that are similar to the query
// string. It uses a combination of Levenshtein distance and token overlap,
// matching against both the entity name and its id.
func FindEntitiesBySimilarity(query string, candidates []Entity, limit int) []SearchResult {
	if query == "" || len(candidates) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	queryLower := strings.ToLower(query)
	queryTokens := tokenize(queryLower)

	var results []SearchResult
	for _, e := range candidates {
		score := calculateScore(queryLower, queryTokens, e.Name)
		if idScore := calculateScore(queryLower, queryTokens, e.ID); idScore > score {
			score = idScore
		}
		if score > 0.3 { // Threshold to filter out irrelevant results
			results = append(results, SearchResult{Entity: e, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// calculateScore returns a similarity score between 0 and 1.
// It combines exact match, Levenshtein distance, and token overlap.
func calculateScore(queryLower string, queryTokens map[string]bool, symbol string) float64 {
	symbolLower := strings.ToLower(symbol)
	if symbolLower == "" {
		return 0
	}

	// 1. Exact match bonus
	if queryLower == symbolLower {
		return 1.0
	}
	if strings.Contains(symbolLower, queryLower) {
		return 0.95 // Substring match is very strong
	}

	// 2. Levenshtein similarity over the whole string. Good for when the
	// user types the full id or near full id.
	levDist := levenshtein.Distance(queryLower, symbolLower, nil)
	maxLen := float64(len(queryLower))
	if len(symbolLower) > int(maxLen) {
		maxLen = float64(len(symbolLower))
	}
	globalLevScore := 1.0 - (float64(levDist) / maxLen)
	if globalLevScore < 0 {
		globalLevScore = 0
	}

	// 3. Token-wise matching. This helps when the user types keywords
	// "payment service" vs "payment-processing-service" or makes a typo
	// in a keyword.
	symbolTokens := tokenize(symbolLower)

	totalTokenScore := 0.0
	for qToken := range queryTokens {
		bestTokenScore := 0.0
		if symbolTokens[qToken] {
			bestTokenScore = 1.0
		} else {
			for sToken := range symbolTokens {
				dist := levenshtein.Distance(qToken, sToken, nil)
				tMax := float64(len(qToken))
				if len(sToken) > int(tMax) {
					tMax = float64(len(sToken))
				}
				score := 1.0 - (float64(dist) / tMax)
				if score > bestTokenScore {
					bestTokenScore = score
				}
			}
		}
		totalTokenScore += bestTokenScore
	}

	tokenScore := 0.0
	if len(queryTokens) > 0 {
		tokenScore = totalTokenScore / float64(len(queryTokens))
	}

	return math.Max(globalLevScore, tokenScore)
}

// tokenize splits a string into unique tokens.
// It handles camelCase, snake_case, and standard separators.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	var currentToken strings.Builder

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			if currentToken.Len() > 0 {
				token := strings.ToLower(currentToken.String())
				if len(token) > 2 { // Filter out very short noise tokens
					tokens[token] = true
				} else if len(s) < 10 { // Keep short tokens for short strings
					tokens[token] = true
				}
				currentToken.Reset()
			}
		} else {
			// Handle camelCase: separate if uppercase
			if unicode.IsUpper(r) && currentToken.Len() > 0 {
				tokens[strings.ToLower(currentToken.String())] = true
				currentToken.Reset()
			}
			currentToken.WriteRune(r)
		}
	}
	if currentToken.Len() > 0 {
		tokens[strings.ToLower(currentToken.String())] = true
	}
	return tokens
}
