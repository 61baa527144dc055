// Рассылка живого превью документа по вебсокетам.
// После каждого изменения документа всем открытым сессиям этого документа отправляется
// raw содержимое и очищенный HTML.
package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gofrs/uuid"
)

const (
	pingPeriod   = time.Second * 20
	timeout      = time.Minute
	writeTimeout = time.Second * 5
)

type PreviewMsg struct {
	DocId     string          `json:"doc_id"`
	Content   json.RawMessage `json:"content"`
	HTML      string          `json:"html"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type PreviewHub struct {
	sessions map[string]map[uuid.UUID]*websocket.Conn
	mutex    sync.RWMutex
}

func NewPreviewHub() *PreviewHub {
	return &PreviewHub{
		sessions: make(map[string]map[uuid.UUID]*websocket.Conn),
	}
}

// Handle держит соединение открытым до его закрытия клиентом или неудачного пинга.
func (h *PreviewHub) Handle(docId string, w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Open websocket connection", "docId", docId, "err", err)
		return
	}
	defer c.CloseNow()

	conId := uuid.Must(uuid.NewV4())

	h.mutex.Lock()
	cons, ok := h.sessions[docId]
	if !ok {
		cons = make(map[uuid.UUID]*websocket.Conn)
		h.sessions[docId] = cons
	}
	cons[conId] = c
	h.mutex.Unlock()

	ctx := c.CloseRead(req.Context())
	go h.pingLoop(ctx, docId, conId, c)
	<-ctx.Done()

	h.remove(docId, conId)
	c.Close(websocket.StatusNormalClosure, "")
}

// Sessions - число открытых сессий документа.
func (h *PreviewHub) Sessions(docId string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.sessions[docId])
}

func (h *PreviewHub) conns(docId string) []*websocket.Conn {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	res := make([]*websocket.Conn, 0, len(h.sessions[docId]))
	for _, c := range h.sessions[docId] {
		res = append(res, c)
	}
	return res
}

// Send пишет превью во все сессии документа параллельно. Зависшая сессия ограничена writeTimeout
// и не задерживает остальные.
func (h *PreviewHub) Send(msg PreviewMsg) {
	var wg sync.WaitGroup
	for _, session := range h.conns(msg.DocId) {
		wg.Add(1)
		go func(session *websocket.Conn) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			if err := wsjson.Write(ctx, session, msg); err != nil {
				slog.Error("Write preview to websocket", "docId", msg.DocId, "err", err)
			}
		}(session)
	}
	wg.Wait()
}

// CloseDocSessions закрывает все сессии документа, например после его удаления.
func (h *PreviewHub) CloseDocSessions(docId string) {
	for _, con := range h.conns(docId) {
		con.Close(websocket.StatusNormalClosure, "doc deleted")
	}
}

func (h *PreviewHub) remove(docId string, conId uuid.UUID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.sessions[docId], conId)
	if len(h.sessions[docId]) == 0 {
		delete(h.sessions, docId)
	}
}

func (h *PreviewHub) pingLoop(ctx context.Context, docId string, conId uuid.UUID, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err := conn.Ping(pingCtx)
		cancel()
		if err != nil {
			slog.Debug("Ping to websocket failed", "docId", docId, "err", err)
			h.remove(docId, conId)
			conn.Close(websocket.StatusNormalClosure, "Ping failed, connection closed")
			return
		}
	}
}
