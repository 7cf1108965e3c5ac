package protocol

// VoteType identifies the kind of vote a user can place on a message.
// The integer codes are persisted in vote rows and sent on the wire;
// they must never be renumbered.
type VoteType int

const (
	Upvote   VoteType = 1
	Downvote VoteType = 2
	Star     VoteType = 3
	Pin      VoteType = 4
)

// VoteTypeFromInt converts a wire integer into a VoteType.
// The second return is false for unknown codes.
func VoteTypeFromInt(v int64) (VoteType, bool) {
	switch VoteType(v) {
	case Upvote, Downvote, Star, Pin:
		return VoteType(v), true
	}
	return 0, false
}

// Ranked reports whether votes of this type feed a starboard.
func (v VoteType) Ranked() bool {
	return v == Star || v == Pin
}

func (v VoteType) String() string {
	switch v {
	case Upvote:
		return "upvote"
	case Downvote:
		return "downvote"
	case Star:
		return "star"
	case Pin:
		return "pin"
	}
	return "unknown"
}
