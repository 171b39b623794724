package models

// Subscription is one recipient's interest in one location, with a
// minimum severity per warning category. The matching engine only reads
// subscriptions; they are created and removed through the preference
// store.
type Subscription struct {
	LocationID string
	Thresholds map[Category]Severity
}

// Threshold returns the minimum severity configured for the given
// category, falling back to the neutral CategoryNone entry when the
// category has no explicit threshold.
func (s Subscription) Threshold(c Category) (Severity, bool) {
	if level, ok := s.Thresholds[c]; ok {
		return level, true
	}
	level, ok := s.Thresholds[CategoryNone]
	return level, ok
}

// Recipient is a registered notification target.
type Recipient struct {
	ID              string
	ReceiveWarnings bool     // master switch; disabled recipients are never matched
	DefaultSeverity Severity // threshold applied when a subscription is added without one
}
