package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jarvis/internal/dispatch"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgReply MsgKind = iota
	MsgBrowserOpened
)

// replyMsg is the constructor for [MsgReply]
func replyMsg(result dispatch.Result) Msg {
	return Msg{kind: MsgReply, data: result}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(url string, err error) Msg {
	return Msg{
		kind: MsgBrowserOpened,
		data: struct {
			url string
			err error
		}{url, err},
	}
}
