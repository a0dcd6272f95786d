package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain"
)

// SubscriberURL turns a server address into its websocket endpoint
func SubscriberURL(addr string) string {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	return u.String()
}

// Subscribe connects to a running server and calls handle for every pushed
// result until ctx is done, the server closes, or handle fails. With
// snapshot set, the latest result is requested right after connecting.
func Subscribe(ctx context.Context, wsURL string, snapshot bool, handle func(domain.ResultMessage) error, logger *zap.Logger) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket connection failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket connection failed: %w", err)
	}
	defer conn.Close()

	logger.Info("Subscribed to results", zap.String("url", wsURL))

	if snapshot {
		request := map[string]string{"type": domain.MessageTypeSnapshot}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(request); err != nil {
			return fmt.Errorf("failed to request snapshot: %w", err)
		}
	}

	// Unblock ReadMessage on cancellation
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		var msg domain.ResultMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			logger.Warn("Failed to parse message", zap.Error(err))
			continue
		}

		if err := handle(msg); err != nil {
			return err
		}
	}
}
