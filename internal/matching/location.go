package matching

import (
	"slices"
	"strings"
)

// LocationMatches reports whether a subscription's location name refers
// to one of a warning's target locations. Comparison is
// case-insensitive and token-exact: the subscription name is split on
// commas and each trimmed token must equal a target location verbatim.
// As a fallback the whole subscription name may appear in the target
// set. This lets "Darmstadt, Wissenschaftsstadt" match a warning scoped
// to "Darmstadt" without any prefix or substring fuzz.
func LocationMatches(subscriptionName string, targetLocations []string) bool {
	if subscriptionName == "" || len(targetLocations) == 0 {
		return false
	}

	name := strings.ToLower(subscriptionName)
	lowered := make([]string, len(targetLocations))
	for i, loc := range targetLocations {
		lowered[i] = strings.ToLower(loc)
	}

	tokens := strings.Split(name, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	for _, loc := range lowered {
		for _, token := range tokens {
			if token == loc {
				return true
			}
		}
	}

	return slices.Contains(lowered, name)
}
