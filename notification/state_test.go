package notification

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChatStateSelection(t *testing.T) {
	state := newChatState()

	_, ok := state.selection(1)
	require.False(t, ok)

	state.selectCoin(1, "bitcoin", "Bitcoin")
	sel, ok := state.selection(1)
	require.True(t, ok)
	require.Equal(t, "bitcoin", sel.coinID)
	require.Equal(t, "Bitcoin", sel.name)

	// Chats are independent.
	_, ok = state.selection(2)
	require.False(t, ok)
}

func TestChatStatePendingConsumeOnce(t *testing.T) {
	state := newChatState()

	state.await(1, pendingAbove, "bitcoin", "Bitcoin")
	input, ok := state.consume(1)
	require.True(t, ok)
	require.Equal(t, pendingAbove, input.kind)
	require.Equal(t, "bitcoin", input.coinID)

	_, ok = state.consume(1)
	require.False(t, ok)
}

func TestChatStateSelectClearsPending(t *testing.T) {
	state := newChatState()

	state.await(1, pendingBelow, "bitcoin", "Bitcoin")
	state.selectCoin(1, "ethereum", "Ethereum")

	_, ok := state.consume(1)
	require.False(t, ok)
}

func TestChatStateCancel(t *testing.T) {
	state := newChatState()

	state.await(1, pendingAbove, "bitcoin", "Bitcoin")
	state.cancel(1)

	_, ok := state.consume(1)
	require.False(t, ok)
}
