package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// How long the in-progress marker lives if the handler never finishes.
const provisionalLockTTL = 60 * time.Second

var validKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

type idempEntry struct {
	InProgress bool   `json:"in_progress"`
	Code       int    `json:"code"`
	Body       []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays a prior response for a repeated Idempotency-Key from
// the same user. The accept endpoint sits behind this so a client retrying a
// timed-out accept cannot trip itself into a conflict against its own win.
func Idempotency(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		if key == "" {
			c.Next()
			return
		}
		if !validKeyPattern.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_idempotency_key"})
			return
		}

		userID, _ := c.Get("user_id")
		uid, _ := userID.(string)
		redisKey := "idemp:" + uid + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key

		ctx := c.Request.Context()
		provisional, _ := json.Marshal(idempEntry{InProgress: true})
		set, err := rdb.SetNX(ctx, redisKey, provisional, provisionalLockTTL).Result()
		if err != nil {
			// Redis down degrades to non-idempotent rather than failing the
			// request.
			c.Next()
			return
		}

		if !set {
			raw, err := rdb.Get(ctx, redisKey).Bytes()
			if err != nil {
				c.Next()
				return
			}
			var entry idempEntry
			if json.Unmarshal(raw, &entry) == nil && entry.InProgress {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request_in_progress"})
				return
			}
			c.Header("Idempotent-Replay", "true")
			c.Data(entry.Code, "application/json", entry.Body)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = recorder
		c.Next()

		entry, _ := json.Marshal(idempEntry{
			Code: recorder.Status(),
			Body: recorder.buf.Bytes(),
		})
		_ = rdb.Set(ctx, redisKey, entry, ttl).Err()
	}
}
