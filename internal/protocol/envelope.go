package protocol

// Request is the inbound envelope: one flat JSON object per frame,
// dispatched by Type. Optional fields are pointers so a missing field
// can be told apart from a zero value.
type Request struct {
	Type      string  `json:"type"`
	Username  *string `json:"username,omitempty"`
	Password  *string `json:"password,omitempty"`
	Token     *string `json:"token,omitempty"`
	Text      *string `json:"text,omitempty"`
	ID        *int64  `json:"id,omitempty"`
	ReplyID   *int64  `json:"replyid,omitempty"`
	MessageID *int64  `json:"messageid,omitempty"`
	VoteType  *int64  `json:"votetype,omitempty"`
	Name      *string `json:"name,omitempty"`
	Desc      *string `json:"desc,omitempty"`
}

// --- Outbound events ---

// MessageEvent announces a created message (type "message") or an
// edited/deleted one (type "edit"). A deleted message is carried with
// its tombstone text "".
type MessageEvent struct {
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	UserID    int64  `json:"userid"`
	ReplyID   *int64 `json:"replyid"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// VoteEvent announces a vote toggle: type "vote" when applied,
// "undovote" when undone.
type VoteEvent struct {
	Type      string `json:"type"`
	MessageID int64  `json:"messageid"`
	UserID    int64  `json:"userid"`
	VoteType  int    `json:"votetype"`
}

type StarboardEntry struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	UserID    int64  `json:"userid"`
	Username  string `json:"username"`
	VoteCount int64  `json:"votecount"`
}

type StarboardEvent struct {
	Type     string           `json:"type"`
	VoteType int              `json:"votetype"`
	Messages []StarboardEntry `json:"messages"`
}

type HistoryRevision struct {
	ReplyID   *int64 `json:"replyid"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type HistoryEvent struct {
	Type      string            `json:"type"`
	Revisions []HistoryRevision `json:"revisions"`
}

type AuthEvent struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

type RegisterEvent struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	UserID  *int64 `json:"userid,omitempty"`
}

type RoomInfoEvent struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
}

type ErrorEvent struct {
	Type string  `json:"type"`
	Code ErrCode `json:"code"`
}

func NewErrorEvent(code ErrCode) ErrorEvent {
	return ErrorEvent{Type: "error", Code: code}
}
