package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sol_cycle/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsReadTimeout      = 60 * time.Second
)

// ErrTransactionFailed is returned when the chain reports an execution error.
var ErrTransactionFailed = errors.New("transaction failed")

type wsRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// wsMessage covers both the subscribe ack and signatureNotification.
type wsMessage struct {
	ID     *int   `json:"id"`
	Method string `json:"method"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Params *struct {
		Subscription uint64 `json:"subscription"`
		Result       struct {
			Value struct {
				Err json.RawMessage `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// SignatureWatcher waits for signature notifications on the RPC WebSocket.
type SignatureWatcher struct {
	url    string
	dialer websocket.Dialer
	logger *slog.Logger
}

func NewSignatureWatcher(url string) *SignatureWatcher {
	return &SignatureWatcher{
		url:    url,
		dialer: websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout},
		logger: slog.Default().With(slog.String("module", "signature_watcher")),
	}
}

// Wait subscribes to txID at confirmed commitment and blocks until the
// notification arrives. nil means confirmed; an error wrapping
// ErrTransactionFailed means the transaction landed and failed. Any other
// error is a transport problem and says nothing about the transaction.
func (w *SignatureWatcher) Wait(ctx context.Context, txID string) error {
	header := make(http.Header)
	header.Add("User-Agent", infra.DefaultUserAgent)

	conn, _, err := w.dialer.DialContext(ctx, w.url, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	// unblocks ReadJSON on cancellation
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "signatureSubscribe",
		Params:  []any{txID, map[string]string{"commitment": "confirmed"}},
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read failed: %w", err)
		}

		if msg.Error != nil {
			return fmt.Errorf("subscribe rejected: %s", msg.Error.Message)
		}
		if msg.Method != "signatureNotification" || msg.Params == nil {
			continue
		}

		if txErr := msg.Params.Result.Value.Err; len(txErr) > 0 && string(txErr) != "null" {
			return fmt.Errorf("%w: %s", ErrTransactionFailed, txErr)
		}
		w.logger.Debug("Signature notification received", slog.String("tx_id", txID))
		return nil
	}
}
