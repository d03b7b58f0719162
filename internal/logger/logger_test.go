package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeferLogTracksErrors(t *testing.T) {
	log := NewDeferLog()
	require.False(t, log.HasErrors())

	log.AddMsg(Msg{Kind: Warning, Data: MsgData{Text: "careful"}})
	require.False(t, log.HasErrors())

	log.AddMsg(Msg{Kind: Error, Data: MsgData{Text: "boom"}})
	require.True(t, log.HasErrors())

	msgs := log.Done()
	require.Len(t, msgs, 2)
}

func TestMsgStringWithoutLocation(t *testing.T) {
	msg := Msg{Kind: Error, Data: MsgData{Text: "unresolved name 'x'"}}
	text := msg.String(OutputOptions{}, TerminalInfo{})
	require.Contains(t, text, "error:")
	require.Contains(t, text, "unresolved name 'x'")
}

func TestMsgStringWithLocationAndSource(t *testing.T) {
	msg := Msg{
		Kind: Error,
		Data: MsgData{
			Text: "divide by zero",
			Location: &MsgLocation{
				File:     "main.sl",
				Line:     4,
				Column:   9,
				LineText: "let x = 1 / 0;",
			},
		},
	}
	text := msg.String(OutputOptions{IncludeSource: true}, TerminalInfo{})
	require.Contains(t, text, "main.sl:4:9")
	require.Contains(t, text, "let x = 1 / 0;")
	require.Contains(t, text, "^")
}

func TestSortableMsgsOrdersByLocation(t *testing.T) {
	msgs := SortableMsgs{
		{Data: MsgData{Text: "b", Location: &MsgLocation{File: "a.sl", Line: 5}}},
		{Data: MsgData{Text: "a", Location: &MsgLocation{File: "a.sl", Line: 2}}},
		{Data: MsgData{Text: "none"}},
	}
	msgs.Swap(0, 0)
	require.Equal(t, 3, msgs.Len())
	require.True(t, msgs.Less(2, 1), "a message with no location sorts before one with a location")
}
