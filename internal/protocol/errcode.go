package protocol

// ErrCode is the numeric error code carried by error events. Codes are
// part of the client protocol and must stay stable.
type ErrCode int

const (
	ErrNeedLogin       ErrCode = 0
	ErrMalformed       ErrCode = 1
	ErrEmptyMsg        ErrCode = 2
	ErrEditDeleted     ErrCode = 3
	ErrBadReqURL       ErrCode = 4
	ErrNoRoomID        ErrCode = 5
	ErrInvalidRoomID   ErrCode = 6
	ErrRoomNotExist    ErrCode = 7
	ErrUsernameTooLong ErrCode = 8
	ErrRateLimit       ErrCode = 9
)

func (e ErrCode) String() string {
	switch e {
	case ErrNeedLogin:
		return "need login"
	case ErrMalformed:
		return "malformed request"
	case ErrEmptyMsg:
		return "empty message"
	case ErrEditDeleted:
		return "message already deleted"
	case ErrBadReqURL:
		return "bad request url"
	case ErrNoRoomID:
		return "no room id"
	case ErrInvalidRoomID:
		return "invalid room id"
	case ErrRoomNotExist:
		return "room does not exist"
	case ErrUsernameTooLong:
		return "username too long"
	case ErrRateLimit:
		return "rate limit exceeded"
	}
	return "unknown"
}
