package broadcaster

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/logging"
)

// Server is the receiving side of the broadcaster peer HTTP contract,
// wrapping a *gin.Engine the way the teacher's api/server.go does.
type Server struct {
	engine   *gin.Engine
	dupCache *DuplicateCache
	lcd      chain.LCDClient
	signer   chain.Signer
	log      logging.Logger
}

// NewServer builds the gin routes for `POST /{chain}/txs` and
// `GET /{chain}/lcd/{path}` (spec.md §6).
func NewServer(dupCache *DuplicateCache, lcd chain.LCDClient, signer chain.Signer, log logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{engine: r, dupCache: dupCache, lcd: lcd, signer: signer, log: log}
	r.POST("/:chain/txs", s.handleTxs)
	r.GET("/:chain/lcd/*path", s.handleLCDProxy)
	return s
}

// Engine exposes the underlying gin engine for the caller to run or mount.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) handleTxs(c *gin.Context) {
	var payload Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, shortCircuit := s.dupCache.Check(payload)
	if shortCircuit {
		c.JSON(http.StatusOK, Response{Result: result, Data: nil})
		return
	}

	outcomes, err := s.executeRepeats(c, payload)
	if err != nil {
		s.log.Error("broadcaster execute failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Result: ResultBroadcasted, Data: outcomes})
}

func (s *Server) executeRepeats(c *gin.Context, payload Payload) ([]TxOutcome, error) {
	var fee chain.Fee
	if payload.Fee != nil {
		fee = *payload.Fee
	}
	outcomes := make([]TxOutcome, 0, payload.NRepeat)
	for i := 0; i < payload.NRepeat; i++ {
		seq := s.signer.Sequence()
		txBytes, err := s.signer.SignTx(c.Request.Context(), payload.Msgs, fee, seq)
		if err != nil {
			return outcomes, err
		}
		info, err := s.lcd.BroadcastSync(c.Request.Context(), txBytes)
		if err != nil {
			return outcomes, err
		}
		s.signer.SetSequence(seq + 1)
		outcomes = append(outcomes, TxOutcome{Timestamp: time.Now(), TxResult: info})
	}
	return outcomes, nil
}

// handleLCDProxy serves peer health probes (spec.md §6) by passing the
// request path as the contract argument of the local LCD client's
// ContractQuery and returning the decoded JSON result; the LCD's own HTTP
// response is not passed through.
func (s *Server) handleLCDProxy(c *gin.Context) {
	path := c.Param("path")
	var result map[string]any
	if err := s.lcd.ContractQuery(c.Request.Context(), path, nil, &result); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
