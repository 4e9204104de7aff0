package middlewares

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	arkerrors "github.com/sanchit-4/universal-nft/pkg/errors"
)

const (
	CallerHeader    = "X-Caller"
	SignatureHeader = "X-Signature"
	TimestampHeader = "X-Timestamp"
	NonceHeader     = "X-Nonce"

	// MaxClockSkew bounds how far a request timestamp may be from the server clock.
	MaxClockSkew = 5 * time.Minute

	maxBodySize  = 1 << 20
	maxNonceSize = 64
)

type callerKey struct{}

// SigningPayload is what the caller signs: method, path, unix timestamp, nonce and raw body
// joined by newlines.
func SigningPayload(method, path string, timestamp int64, nonce string, body []byte) []byte {
	buf := make([]byte, 0, len(method)+len(path)+len(nonce)+len(body)+24)
	buf = append(buf, method...)
	buf = append(buf, '\n')
	buf = append(buf, path...)
	buf = append(buf, '\n')
	buf = strconv.AppendInt(buf, timestamp, 10)
	buf = append(buf, '\n')
	buf = append(buf, nonce...)
	buf = append(buf, '\n')
	return append(buf, body...)
}

// Auth identifies the caller of a request from the X-Caller header. Unless noAuth is set the
// X-Signature header must carry the caller's ed25519 signature of SigningPayload, the
// X-Timestamp header must be within MaxClockSkew and a signature is accepted only once. Callers
// repeating a request pick a new X-Nonce.
func Auth(noAuth bool) func(http.Handler) http.Handler {
	seen := newSignatureCache(2 * MaxClockSkew)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerStr := r.Header.Get(CallerHeader)
			caller, err := domain.ParsePublicKey(callerStr)
			if err != nil {
				WriteError(w, r, unauthenticated(callerStr, "missing or invalid caller"))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
			if err != nil {
				WriteError(w, r, arkerrors.INVALID_REQUEST.New("failed to read body: %s", err).
					WithMetadata(arkerrors.InvalidRequestMetadata{Field: "body"}))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !noAuth {
				timestamp, err := strconv.ParseInt(r.Header.Get(TimestampHeader), 10, 64)
				if err != nil {
					WriteError(w, r, unauthenticated(callerStr, "missing or invalid timestamp"))
					return
				}
				now := time.Now()
				if skew := now.Sub(time.Unix(timestamp, 0)); skew > MaxClockSkew ||
					skew < -MaxClockSkew {
					WriteError(w, r, unauthenticated(callerStr, "stale request timestamp"))
					return
				}

				nonce := r.Header.Get(NonceHeader)
				if len(nonce) == 0 || len(nonce) > maxNonceSize {
					WriteError(w, r, unauthenticated(callerStr, "missing or invalid nonce"))
					return
				}

				sigStr := r.Header.Get(SignatureHeader)
				sig, err := base58.Decode(sigStr)
				payload := SigningPayload(r.Method, r.URL.Path, timestamp, nonce, body)
				if err != nil || len(sig) != ed25519.SignatureSize ||
					!ed25519.Verify(ed25519.PublicKey(caller.Bytes()), payload, sig) {
					WriteError(w, r, unauthenticated(callerStr, "invalid request signature"))
					return
				}
				if !seen.add(string(sig), now) {
					WriteError(w, r, unauthenticated(callerStr, "request signature already used"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the caller authenticated by Auth.
func CallerFromContext(ctx context.Context) (common.PublicKey, bool) {
	caller, ok := ctx.Value(callerKey{}).(common.PublicKey)
	return caller, ok
}

func unauthenticated(caller, msg string) error {
	return arkerrors.UNAUTHENTICATED.New("%s", msg).
		WithMetadata(arkerrors.UnauthenticatedMetadata{Caller: caller})
}

// signatureCache remembers accepted signatures for ttl, longer than any timestamp stays fresh.
type signatureCache struct {
	lock    sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
}

func newSignatureCache(ttl time.Duration) *signatureCache {
	return &signatureCache{ttl: ttl, entries: make(map[string]time.Time)}
}

// add returns false if sig was already accepted.
func (c *signatureCache) add(sig string, now time.Time) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	for s, at := range c.entries {
		if now.Sub(at) > c.ttl {
			delete(c.entries, s)
		}
	}
	if _, ok := c.entries[sig]; ok {
		return false
	}
	c.entries[sig] = now
	return true
}
