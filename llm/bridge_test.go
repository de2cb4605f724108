package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHelper plays the bridge process: every bot echoes questions with a
// per-bot counter.
type fakeHelper struct {
	mu     sync.Mutex
	nextID int
	asked  map[string]int
	closed []string
}

func (h *fakeHelper) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch req.Method {
	case BridgeNewBot:
		h.nextID++
		return BridgeNewBotResult{BotID: fmt.Sprintf("bot-%d", h.nextID)}, nil
	case BridgeAsk:
		var params BridgeAskParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		if params.Question == "fail" {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: "browser crashed"}
		}
		h.asked[params.BotID]++
		return BridgeAskResult{Answer: fmt.Sprintf("%s#%d: %s", params.BotID, h.asked[params.BotID], params.Question)}, nil
	case BridgeCloseBot:
		var params BridgeBotParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		h.closed = append(h.closed, params.BotID)
		return true, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: req.Method}
}

func startFakeBridge(t *testing.T) (*Bridge, *fakeHelper) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	helper := &fakeHelper{asked: map[string]int{}}
	ctx := context.Background()
	server := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(helper.handle))
	bridge := NewBridge(ctx, clientSide)
	t.Cleanup(func() {
		_ = bridge.Shutdown()
		_ = server.Close()
	})
	return bridge, helper
}

func TestBridgeSessions(t *testing.T) {
	bridge, helper := startFakeBridge(t)
	ctx := context.Background()

	first, err := bridge.Open(ctx)
	require.NoError(t, err)
	second, err := bridge.Open(ctx)
	require.NoError(t, err)

	answer, err := first.Ask(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "bot-1#1: hello", answer)
	answer, err = first.Ask(ctx, "again")
	require.NoError(t, err)
	assert.Equal(t, "bot-1#2: again", answer)
	answer, err = second.Ask(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "bot-2#1: hi", answer)

	require.NoError(t, first.Close())
	require.NoError(t, first.Close())
	_, err = first.Ask(ctx, "late")
	assert.ErrorIs(t, err, ErrSessionClosed)

	helper.mu.Lock()
	assert.Equal(t, []string{"bot-1"}, helper.closed)
	helper.mu.Unlock()
}

func TestBridgeAskError(t *testing.T) {
	bridge, _ := startFakeBridge(t)
	session, err := bridge.Open(context.Background())
	require.NoError(t, err)
	_, err = session.Ask(context.Background(), "fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser crashed")
}

func TestLaunchBridgeRequiresCommand(t *testing.T) {
	_, err := LaunchBridge(nil, "")
	assert.Error(t, err)
}
