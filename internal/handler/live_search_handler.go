package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/search"
	"github.com/noah-isme/studyhub-api/pkg/logger"
)

const (
	liveWriteWait      = 10 * time.Second
	livePongWait       = 60 * time.Second
	livePingPeriod     = livePongWait * 9 / 10
	liveMaxMessageSize = 8 << 10
)

type staleResponseRecorder interface {
	RecordStaleLiveResponse()
}

// LiveSearchHandler runs searches over a websocket as the user edits filters. Every
// inbound message supersedes the previous one: its search is cancelled and a reply is
// written only while its sequence number is still the latest issued.
type LiveSearchHandler struct {
	service  resourceSearchService
	metrics  staleResponseRecorder
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewLiveSearchHandler constructs the handler. An empty allowedOrigins accepts any origin.
func NewLiveSearchHandler(svc resourceSearchService, metrics staleResponseRecorder, log *zap.Logger, allowedOrigins []string) *LiveSearchHandler {
	if log == nil {
		log = zap.NewNop()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return &LiveSearchHandler{
		service: svc,
		metrics: metrics,
		logger:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Serve godoc
// @Summary Live resource search
// @Description Websocket. Send models.LiveSearchMessage frames, receive models.LiveSearchReply frames for the latest request only.
// @Tags Resources
// @Param access_token query string false "Bearer token when headers cannot be set"
// @Success 101
// @Router /resources/search/live [get]
func (h *LiveSearchHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.FromContext(h.logger, c).Warn("live search upgrade failed", zap.Error(err))
		return
	}

	session := &liveSession{
		handler: h,
		conn:    conn,
		logger:  logger.FromContext(h.logger, c),
	}
	session.run(c.Request.Context())
}

type liveSession struct {
	handler *LiveSearchHandler
	conn    *websocket.Conn
	logger  *zap.Logger

	seq     search.Sequencer
	writeMu sync.Mutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func (s *liveSession) run(parent context.Context) {
	ctx, cancelAll := context.WithCancel(parent)
	defer func() {
		cancelAll()
		s.wg.Wait()
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(liveMaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	s.wg.Add(1)
	go s.ping(ctx)

	for {
		var msg models.LiveSearchMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("live search connection closed", zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(livePongWait))

		seq := s.seq.Next()
		if s.cancel != nil {
			s.cancel()
		}
		reqCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel

		s.wg.Add(1)
		go s.search(reqCtx, cancel, seq, msg)
	}
}

func (s *liveSession) search(ctx context.Context, cancel context.CancelFunc, seq uint64, msg models.LiveSearchMessage) {
	defer s.wg.Done()
	defer cancel()

	msg.Filter.Query = strings.TrimSpace(msg.Filter.Query)
	result, err := s.runSearch(ctx, seq, msg.SearchRequest)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !s.seq.IsLatest(seq) {
		s.logger.Debug("dropping stale live search reply", zap.Uint64("seq", seq), zap.Uint64("latest", s.seq.Latest()))
		if s.handler.metrics != nil {
			s.handler.metrics.RecordStaleLiveResponse()
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		// session closing
		return
	}

	reply := models.LiveSearchReply{
		Seq:       seq,
		ClientSeq: msg.ClientSeq,
		Result:    result,
		Degraded:  err != nil,
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := s.conn.WriteJSON(reply); err != nil {
		s.logger.Debug("live search write failed", zap.Uint64("seq", seq), zap.Error(err))
	}
}

// runSearch turns a panic in the search path into a degraded reply; it runs outside
// gin's recovery middleware.
func (s *liveSession) runSearch(ctx context.Context, seq uint64, req models.SearchRequest) (result *models.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("live search panicked", zap.Uint64("seq", seq), zap.Any("panic", r), zap.Stack("stack"))
			result = &models.SearchResult{Items: []models.Resource{}}
			err = fmt.Errorf("live search panic: %v", r)
		}
	}()
	return s.handler.service.Search(ctx, req)
}

func (s *liveSession) ping(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
