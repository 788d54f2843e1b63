package chat

import (
	"net/http"

	"PSocial/tools/decode"
	"PSocial/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handshake is read from the upgrade request query, e.g. /socket?userId=...
type Handshake struct {
	UserID string `json:"userId"`
}

type Server struct {
	reg      *Registry
	upgrader websocket.Upgrader
	opts     ConnOptions
	log      *zap.Logger
}

// NewServer accepts upgrades from allowedOrigins; an empty list accepts any origin.
func NewServer(reg *Registry, allowedOrigins []string, opts ConnOptions) *Server {
	safe.MustNotNil(reg, "registry")
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Server{
		reg:  reg,
		opts: opts,
		log:  reg.log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (s *Server) Registry() *Registry { return s.reg }

// HandleWS upgrades the request and runs the connection until it closes.
func (s *Server) HandleWS(c *gin.Context) {
	hs, err := decode.DecodeQuery[Handshake](c.Request.URL.Query())
	if err != nil || hs.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "userId is required"})
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader has already written the error response
		s.log.Info("[HandleWS] upgrade websocket error", zap.Error(err))
		return
	}

	conn := NewWsConn(hs.UserID, ws, s.opts, s.log)
	sess := NewSession(s.reg, hs.UserID, conn)

	safe.SafeGo("ws-write", conn.writePump)
	sess.Connect()

	conn.readPump()

	sess.Close()
	conn.Close()
}
