package hangman

// PartID names one drawable segment of the figure.
type PartID string

const (
	PartPole     PartID = "pole"
	PartHead     PartID = "head"
	PartBody     PartID = "body"
	PartLeftArm  PartID = "left_arm"
	PartRightArm PartID = "right_arm"
	PartLegs     PartID = "legs"
)

// Parts lists every segment in drawing order; part i appears at i+1 mistakes.
var Parts = [MaxMistakes]PartID{
	PartPole,
	PartHead,
	PartBody,
	PartLeftArm,
	PartRightArm,
	PartLegs,
}

// VisibleParts returns the segments to draw for the given mistake count.
// Counts are clamped to [0, MaxMistakes].
func VisibleParts(mistakes int) []PartID {
	if mistakes < 0 {
		mistakes = 0
	}
	if mistakes > MaxMistakes {
		mistakes = MaxMistakes
	}
	out := make([]PartID, mistakes)
	copy(out, Parts[:mistakes])
	return out
}

// PartVisible reports whether p is drawn at the given mistake count.
func PartVisible(p PartID, mistakes int) bool {
	for i, part := range Parts {
		if part == p {
			return mistakes >= i+1
		}
	}
	return false
}
