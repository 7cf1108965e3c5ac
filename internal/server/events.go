package server

import (
	"parlor/internal/protocol"
	"parlor/internal/rank"
	"parlor/internal/store"
)

func messageEvent(m *store.Message, edit bool) protocol.MessageEvent {
	typ := "message"
	if edit {
		typ = "edit"
	}
	return protocol.MessageEvent{
		Type:      typ,
		ID:        m.ID,
		UserID:    m.UserID,
		ReplyID:   m.ReplyID,
		Username:  m.Username,
		Text:      m.Text,
		Timestamp: m.Timestamp.Unix(),
	}
}

func voteEvent(res *store.VoteResult) protocol.VoteEvent {
	typ := "vote"
	if res.Undone {
		typ = "undovote"
	}
	return protocol.VoteEvent{
		Type:      typ,
		MessageID: res.MessageID,
		UserID:    res.UserID,
		VoteType:  int(res.Type),
	}
}

func starboardEvent(vt protocol.VoteType, board []rank.Entry) protocol.StarboardEvent {
	entries := make([]protocol.StarboardEntry, 0, len(board))
	for _, e := range board {
		entries = append(entries, protocol.StarboardEntry{
			ID:        e.ID,
			Text:      e.Text,
			Timestamp: e.Timestamp.Unix(),
			UserID:    e.UserID,
			Username:  e.Username,
			VoteCount: e.Votes,
		})
	}
	return protocol.StarboardEvent{Type: "starboard", VoteType: int(vt), Messages: entries}
}

func historyEvent(revs []store.Revision) protocol.HistoryEvent {
	out := make([]protocol.HistoryRevision, 0, len(revs))
	for _, r := range revs {
		out = append(out, protocol.HistoryRevision{
			ReplyID:   r.ReplyID,
			Text:      r.Text,
			Timestamp: r.Timestamp.Unix(),
		})
	}
	return protocol.HistoryEvent{Type: "history", Revisions: out}
}

func roomInfoEvent(r *store.Room) protocol.RoomInfoEvent {
	return protocol.RoomInfoEvent{Type: "roominfo", ID: r.ID, Name: r.Name, Desc: r.Description}
}
