package http

import (
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/dkeye/SignCall/internal/adapters/ratelimit"
	"github.com/dkeye/SignCall/internal/app/orch"
	"github.com/dkeye/SignCall/internal/app/sign"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var features = []string{"webrtc-signaling", "captions", "sign-detection", "presence"}

type handlers struct {
	orch     *orch.Orchestrator
	ice      []webrtc.ICEServer
	limiter  *ratelimit.Limiter
	maxFrame int
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"connections": h.orch.Registry.Count(),
		"rooms":       len(h.orch.Rooms.List()),
		"features":    features,
	})
}

func (h *handlers) rooms(c *gin.Context) {
	list := h.orch.Rooms.List()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	c.JSON(http.StatusOK, gin.H{"rooms": list})
}

func (h *handlers) presence(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.orch.Presence.Snapshot(c.Request.Context())})
}

func (h *handlers) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.ice})
}

// allow limits per remote address. The session token is not used as a key
// since a client can drop the cookie to get a fresh one.
func (h *handlers) allow(c *gin.Context) bool {
	ip := c.ClientIP()
	if h.limiter.Allow(ip) {
		return true
	}
	log.Warn().Str("module", "adapters.http").Str("ip", ip).Str("client", c.GetString("client_token")).Str("path", c.FullPath()).Msg("rate limited")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	return false
}

// bodyLimit leaves room for base64 and JSON overhead on top of the raw frame size.
func (h *handlers) bodyLimit() int64 {
	if h.maxFrame <= 0 {
		return 8 << 20
	}
	return int64(h.maxFrame)*2 + 4096
}

type detectRequest struct {
	Frame     string `json:"frame"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Timestamp any    `json:"timestamp"`
}

// detect classifies one frame without broadcasting it anywhere.
func (h *handlers) detect(c *gin.Context) {
	if !h.allow(c) {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.bodyLimit())
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Frame == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no frame provided"})
		return
	}

	label := h.orch.Signs.ClassifyPayload(c.Request.Context(), req.Frame)
	ts := req.Timestamp
	if ts == nil {
		ts = time.Now().UTC().Format(time.RFC3339)
	}
	if !label.Detected() {
		c.JSON(http.StatusOK, gin.H{"sign": nil, "detected": false, "message": "No hand detected"})
		return
	}
	log.Debug().Str("module", "adapters.http").Str("user", req.UserID).Str("room", req.RoomID).Str("sign", string(label)).Msg("sign detected")
	c.JSON(http.StatusOK, gin.H{"sign": label, "detected": true, "timestamp": ts})
}

// predict accepts a multipart "frame" file and answers {"prediction": label}.
func (h *handlers) predict(c *gin.Context) {
	if !h.allow(c) {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.bodyLimit())
	fh, err := c.FormFile("frame")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no frame provided"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable frame"})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable frame"})
		return
	}

	label := h.orch.Signs.Classify(c.Request.Context(), raw)
	if !label.Detected() {
		label = sign.NoHand
	}
	c.JSON(http.StatusOK, gin.H{"prediction": label})
}
