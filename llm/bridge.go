package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/logger"
)

// Bridge methods spoken over JSON-RPC.
const (
	BridgeNewBot   = "new_bot"
	BridgeAsk      = "ask"
	BridgeCloseBot = "close_bot"
)

// BridgeNewBotResult is the reply to new_bot.
type BridgeNewBotResult struct {
	BotID string `json:"bot_id"`
}

// BridgeAskParams is the request of ask.
type BridgeAskParams struct {
	BotID    string `json:"bot_id"`
	Question string `json:"question"`
}

// BridgeAskResult is the reply to ask.
type BridgeAskResult struct {
	Answer string `json:"answer"`
}

// BridgeBotParams identifies a bot for close_bot.
type BridgeBotParams struct {
	BotID string `json:"bot_id"`
}

// Bridge drives an external helper process (typically a browser automation
// script) that owns the actual chat sessions. Each Open creates a new bot in
// the helper; the helper keeps that bot's conversation.
type Bridge struct {
	conn   *jsonrpc2.Conn
	cmd    *exec.Cmd
	cancel context.CancelFunc
	Logger *log.Logger
	once   sync.Once
}

// LaunchBridge starts command and speaks JSON-RPC over its stdio.
func LaunchBridge(command []string, dir string) (*Bridge, error) {
	if len(command) == 0 {
		return nil, errors.New("bridge command is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start bridge: %w", err)
	}
	b := NewBridge(ctx, &stdioReadWriteCloser{reader: stdout, writer: stdin})
	b.cmd = cmd
	b.cancel = cancel
	return b, nil
}

// NewBridge speaks JSON-RPC over an already connected stream.
func NewBridge(ctx context.Context, rwc io.ReadWriteCloser) *Bridge {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	handler := jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		if !req.Notif {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
		}
		return nil, nil
	})
	return &Bridge{conn: jsonrpc2.NewConn(ctx, stream, handler)}
}

// Open asks the helper for a fresh bot.
func (b *Bridge) Open(ctx context.Context) (framework.ChatBackend, error) {
	var res BridgeNewBotResult
	if err := b.conn.Call(ctx, BridgeNewBot, nil, &res); err != nil {
		return nil, fmt.Errorf("bridge %s: %w", BridgeNewBot, err)
	}
	if res.BotID == "" {
		return nil, errors.New("bridge returned an empty bot id")
	}
	b.logger().Debug("bridge bot opened", "bot", res.BotID)
	return &bridgeSession{bridge: b, botID: res.BotID}, nil
}

// Shutdown closes the connection and stops the helper process.
func (b *Bridge) Shutdown() error {
	var err error
	b.once.Do(func() {
		err = b.conn.Close()
		if b.cancel != nil {
			b.cancel()
		}
		if b.cmd != nil && b.cmd.Process != nil {
			_ = b.cmd.Process.Kill()
			_, _ = b.cmd.Process.Wait()
		}
	})
	return err
}

func (b *Bridge) logger() *log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return logger.Logger
}

type bridgeSession struct {
	bridge *Bridge
	botID  string
	mu     sync.Mutex
	closed bool
}

func (s *bridgeSession) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}
	var res BridgeAskResult
	params := BridgeAskParams{BotID: s.botID, Question: question}
	if err := s.bridge.conn.Call(ctx, BridgeAsk, params, &res); err != nil {
		return "", fmt.Errorf("bridge %s: %w", BridgeAsk, err)
	}
	return res.Answer, nil
}

func (s *bridgeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var ack any
	if err := s.bridge.conn.Call(context.Background(), BridgeCloseBot, BridgeBotParams{BotID: s.botID}, &ack); err != nil {
		return fmt.Errorf("bridge %s: %w", BridgeCloseBot, err)
	}
	return nil
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}
