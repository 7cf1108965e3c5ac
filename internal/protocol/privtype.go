package protocol

// PrivType identifies an action kind gated by per-room privilege rows.
// Codes 1-18 are persisted in privilege rows; they must never be
// renumbered.
type PrivType int

const (
	ReadAccess     PrivType = 1
	SendMessage    PrivType = 2
	MoveIn         PrivType = 3
	MoveOut        PrivType = 4
	ModifyRoom     PrivType = 5
	ModifyPrivs    PrivType = 6
	EditOwn        PrivType = 7
	EditOthers     PrivType = 8
	DeleteOwn      PrivType = 9
	DeleteOthers   PrivType = 10
	StarOwn        PrivType = 11
	StarOthers     PrivType = 12
	PinOwn         PrivType = 13
	PinOthers      PrivType = 14
	UpvoteOwn      PrivType = 15
	UpvoteOthers   PrivType = 16
	DownvoteOwn    PrivType = 17
	DownvoteOthers PrivType = 18
)

// VotePriv maps a vote type onto the privilege kind that gates it,
// depending on whether the voter authored the target message.
func VotePriv(v VoteType, own bool) PrivType {
	switch v {
	case Upvote:
		if own {
			return UpvoteOwn
		}
		return UpvoteOthers
	case Downvote:
		if own {
			return DownvoteOwn
		}
		return DownvoteOthers
	case Star:
		if own {
			return StarOwn
		}
		return StarOthers
	case Pin:
		if own {
			return PinOwn
		}
		return PinOthers
	}
	return 0
}

// EditPriv returns the privilege kind gating an edit, and DeletePriv the
// one gating a delete, based on message authorship.
func EditPriv(own bool) PrivType {
	if own {
		return EditOwn
	}
	return EditOthers
}

func DeletePriv(own bool) PrivType {
	if own {
		return DeleteOwn
	}
	return DeleteOthers
}
