package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// ErrUnauthorized is returned when a relay token is missing or invalid.
var ErrUnauthorized = errors.New("unauthorized")

// DefaultTokenTTL is the lifetime of relay bearer tokens.
const DefaultTokenTTL = 5 * time.Minute

// SignToken issues an HS256 bearer token for subject.
func SignToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: empty secret", ErrUnauthorized)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyToken checks an Authorization header value ("Bearer <jwt>") and
// returns the token's subject.
func VerifyToken(secret []byte, header string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", fmt.Errorf("%w: no bearer token", ErrUnauthorized)
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims.Subject, nil
}

// WSOptions configures a relay connection.
type WSOptions struct {
	URL       string
	Secret    []byte
	Subject   string // token subject, usually the observer's name
	ReadLimit int64
	Log       logrus.FieldLogger
}

// WSSource reads binary frames from a capture relay.
type WSSource struct {
	conn *websocket.Conn
	log  logrus.FieldLogger
}

// DialWS connects to the relay, authenticating with a fresh bearer token.
func DialWS(ctx context.Context, opts WSOptions) (*WSSource, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	tok, err := SignToken(opts.Secret, opts.Subject, DefaultTokenTTL)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.Dial(ctx, opts.URL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + tok}},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: relay refused token", ErrUnauthorized)
		}
		return nil, fmt.Errorf("dial %s: %w", opts.URL, err)
	}
	if opts.ReadLimit > 0 {
		conn.SetReadLimit(opts.ReadLimit)
	}
	log.WithField("url", opts.URL).Info("connected to capture relay")
	return &WSSource{conn: conn, log: log}, nil
}

// Next returns the next binary message. Text messages are skipped; a
// normal close from the relay ends the stream with io.EOF.
func (s *WSSource) Next(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil, io.EOF
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		if typ != websocket.MessageBinary {
			s.log.WithField("bytes", len(data)).Debug("skipping text message")
			continue
		}
		return data, nil
	}
}

// Close closes the connection normally.
func (s *WSSource) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

// Relay serves a fixed list of frames to every authenticated websocket
// client. It stands in for a capture relay when replaying recorded games.
type Relay struct {
	Frames   [][]byte
	Secret   []byte
	Interval time.Duration
	Log      logrus.FieldLogger
}

// ServeHTTP authenticates the client, streams the frames and closes.
func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := rl.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	subject, err := VerifyToken(rl.Secret, r.Header.Get("Authorization"))
	if err != nil {
		log.WithError(err).WithField("remote", r.RemoteAddr).Warn("rejecting relay client")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	log = log.WithField("subject", subject)
	ctx := r.Context()
	for i, f := range rl.Frames {
		if rl.Interval > 0 && i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(rl.Interval):
			}
		}
		if err := conn.Write(ctx, websocket.MessageBinary, f); err != nil {
			log.WithError(err).WithField("frame", i).Warn("relay write failed")
			return
		}
	}
	log.WithField("frames", len(rl.Frames)).Info("relay finished")
	conn.Close(websocket.StatusNormalClosure, "end of capture")
}
