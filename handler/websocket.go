package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"filmorate_social/logging"
	"filmorate_social/middleware"
	"filmorate_social/model"
	"filmorate_social/service"
	"filmorate_social/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client 一个设备的 WebSocket 连接
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *FeedHub
	mu     sync.Mutex
	closed bool
}

// FeedHub 在线连接管理，把新产生的动态推送给相关用户的所有设备
type FeedHub struct {
	// map[userID]map[clientID]*Client
	Clients map[uuid.UUID]map[uuid.UUID]*Client
	mu      sync.RWMutex

	MaxConnectionsPerUser int

	// 为 nil 时只做本地推送
	rdb *redis.Client

	// 跨 Pod 广播去重
	podID string

	stopPubSub chan struct{}
}

const redisBroadcastChannel = "feed:broadcast"

// BroadcastMessage 跨 Pod 广播消息格式
type BroadcastMessage struct {
	UserID  string `json:"user_id"`
	PodID   string `json:"pod_id"`
	Payload []byte `json:"payload"`
}

// FeedPush 推送给客户端的消息
type FeedPush struct {
	Type string           `json:"type"`
	Data *model.FeedEvent `json:"data"`
}

func NewFeedHub(rdb *redis.Client) *FeedHub {
	return &FeedHub{
		Clients:               make(map[uuid.UUID]map[uuid.UUID]*Client),
		MaxConnectionsPerUser: 18,
		rdb:                   rdb,
		podID:                 uuid.New().String(),
		stopPubSub:            make(chan struct{}),
	}
}

// Register 注册客户端，超过设备上限时拒绝
func (h *FeedHub) Register(client *Client) bool {
	h.mu.Lock()
	if h.Clients[client.UserID] == nil {
		h.Clients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	if len(h.Clients[client.UserID]) >= h.MaxConnectionsPerUser {
		h.mu.Unlock()

		logging.Warn().
			Str("user_id", client.UserID.String()).
			Int("max", h.MaxConnectionsPerUser).
			Msg("too many devices, rejecting connection")
		if client.Conn != nil {
			client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too many devices"))
			client.Conn.Close()
		}
		return false
	}

	h.Clients[client.UserID][client.ID] = client
	devices := len(h.Clients[client.UserID])
	h.mu.Unlock()

	logging.Debug().
		Str("user_id", client.UserID.String()).
		Str("client_id", client.ID.String()).
		Int("devices", devices).
		Msg("feed client connected")
	return true
}

// Unregister 注销客户端并关闭其发送通道
func (h *FeedHub) Unregister(client *Client) {
	h.mu.Lock()
	if userClients, ok := h.Clients[client.UserID]; ok {
		if _, found := userClients[client.ID]; found {
			delete(userClients, client.ID)
			if len(userClients) == 0 {
				delete(h.Clients, client.UserID)
			}
		}
	}
	h.mu.Unlock()

	client.mu.Lock()
	if !client.closed {
		close(client.Send)
		client.closed = true
	}
	client.mu.Unlock()
}

// IsOnline 用户至少有一个设备在线
func (h *FeedHub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients[userID]) > 0
}

// SendToUser 发送给本 Pod 上该用户的所有设备
func (h *FeedHub) SendToUser(userID uuid.UUID, message []byte) bool {
	h.mu.RLock()
	userClients := h.Clients[userID]
	clients := make([]*Client, 0, len(userClients))
	for _, client := range userClients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := false
	for _, client := range clients {
		delivered, full := client.trySend(message)
		if delivered {
			sent = true
		}
		if full {
			logging.Warn().
				Str("user_id", userID.String()).
				Str("client_id", client.ID.String()).
				Msg("send channel full, closing connection")
			go h.Unregister(client)
		}
	}
	return sent
}

// trySend 持有 client.mu 做非阻塞发送，与 Unregister 的 close 互斥
func (c *Client) trySend(message []byte) (delivered, full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, false
	}
	select {
	case c.Send <- message:
		return true, false
	default:
		return false, true
	}
}

// BroadcastToUser 本地发送，同时 publish 到 Redis 让其他 Pod 推送
func (h *FeedHub) BroadcastToUser(ctx context.Context, userID uuid.UUID, message []byte) {
	h.SendToUser(userID, message)
	if h.rdb == nil {
		return
	}

	data, err := json.Marshal(BroadcastMessage{
		UserID:  userID.String(),
		PodID:   h.podID,
		Payload: message,
	})
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}
	if err := h.rdb.Publish(ctx, redisBroadcastChannel, data).Err(); err != nil {
		logging.Error().Err(err).Msg("failed to publish feed broadcast")
	}
}

// StartPubSub 订阅其他 Pod 的广播
func (h *FeedHub) StartPubSub() {
	if h.rdb == nil {
		return
	}
	go func() {
		pubsub := h.rdb.Subscribe(context.Background(), redisBroadcastChannel)
		defer pubsub.Close()

		logging.Info().Str("pod_id", h.podID[:8]).Msg("feed pub/sub subscribed")

		ch := pubsub.Channel()
		for {
			select {
			case <-h.stopPubSub:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.handleBroadcastMessage([]byte(msg.Payload))
			}
		}
	}()
}

func (h *FeedHub) StopPubSub() {
	close(h.stopPubSub)
}

func (h *FeedHub) handleBroadcastMessage(data []byte) {
	var msg BroadcastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logging.Error().Err(err).Msg("invalid broadcast message")
		return
	}
	if msg.PodID == h.podID {
		return
	}
	userID, err := uuid.Parse(msg.UserID)
	if err != nil {
		logging.Error().Err(err).Msg("invalid user id in broadcast message")
		return
	}
	h.SendToUser(userID, msg.Payload)
}

// Publish 推送一条动态：发起者，以及好友事件的对方
func (h *FeedHub) Publish(ctx context.Context, event *model.FeedEvent) {
	payload, err := json.Marshal(FeedPush{Type: "feed", Data: event})
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal feed push")
		return
	}

	h.BroadcastToUser(ctx, event.UserID, payload)
	if event.EventType == model.EventTypeFriend && event.EntityID != event.UserID {
		h.BroadcastToUser(ctx, event.EntityID, payload)
	}
}

// Sink 写入 next 成功后推送
func (h *FeedHub) Sink(next service.FeedSink) service.FeedSink {
	return &publishingSink{next: next, hub: h}
}

type publishingSink struct {
	next service.FeedSink
	hub  *FeedHub
}

func (s *publishingSink) RecordEvent(ctx context.Context, event *model.FeedEvent) error {
	if err := s.next.RecordEvent(ctx, event); err != nil {
		return err
	}
	s.push(ctx, event)
	return nil
}

// push 推送失败不影响已写入的动态
func (s *publishingSink) push(ctx context.Context, event *model.FeedEvent) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Str("user_id", event.UserID.String()).Msg("feed push panicked")
		}
	}()
	s.hub.Publish(ctx, event)
}

// HandleWebSocket 动态推送连接，token 通过 query 传入
func HandleWebSocket(hub *FeedHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			utils.Unauthorized(c, "missing token")
			return
		}

		userID, err := middleware.ValidateToken(tokenString)
		if err != nil {
			utils.Unauthorized(c, "invalid token")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logging.Error().Err(err).Str("user_id", userID.String()).Msg("websocket upgrade failed")
			return
		}

		client := &Client{
			ID:     uuid.New(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Hub:    hub,
		}
		if !hub.Register(client) {
			return
		}

		go client.readPump()
		go client.writePump()
	}
}

// readPump 只处理心跳与关闭，客户端不发送业务消息
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Str("user_id", c.UserID.String()).Msg("websocket unexpected close")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
