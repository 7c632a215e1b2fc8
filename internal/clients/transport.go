package clients

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// TokenSource supplies the current bearer credential, if any.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// TokenSourceFunc adapts a function such as (*auth.TokenStore).Get to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, bool)

func (f TokenSourceFunc) Token(ctx context.Context) (string, bool) { return f(ctx) }

// bearerTransport attaches the stored credential and a request id to every
// outgoing request. An Authorization header set by the caller wins.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
	log    *logrus.Logger
}

func newBearerTransport(base http.RoundTripper, tokens TokenSource, logger *logrus.Logger) *bearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &bearerTransport{base: base, tokens: tokens, log: logger}
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if req.Header.Get(requestIDHeader) == "" {
		req.Header.Set(requestIDHeader, uuid.NewString())
	}
	if req.Header.Get("Authorization") == "" && t.tokens != nil {
		if token, ok := t.tokens.Token(req.Context()); ok {
			req.Header.Set("Authorization", "Bearer "+token)
			t.log.Debugf("Transport: Attached bearer credential to %s %s", req.Method, req.URL.Path)
		}
	}
	return t.base.RoundTrip(req)
}
