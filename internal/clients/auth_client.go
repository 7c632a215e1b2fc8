package clients

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
)

type authHTTPClient struct {
	rest *restClient
	log  *logrus.Logger
}

var _ domain.AuthAPI = (*authHTTPClient)(nil)

func NewAuthHTTPClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *logrus.Logger) domain.AuthAPI {
	return &authHTTPClient{
		rest: newRestClient(baseURL, timeout, tokens, logger),
		log:  logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type userEnvelope struct {
	User *domain.Profile `json:"user"`
}

func (c *authHTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", errors.New("email and password required")
	}

	var resp loginResponse
	if err := c.rest.do(ctx, "AuthClient.Login", http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp, requestOptions{}); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		c.log.Errorf("AuthClient: Login for %s returned no access token", email)
		return "", &domain.RemoteError{Op: "AuthClient.Login", StatusCode: http.StatusOK, Message: "response carried no access_token"}
	}
	c.log.Infof("AuthClient: Login succeeded for %s", email)
	return resp.AccessToken, nil
}

func (c *authHTTPClient) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Profile, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" {
		return nil, errors.New("email and password required")
	}

	var resp userEnvelope
	if err := c.rest.do(ctx, "AuthClient.Signup", http.MethodPost, "/auth/signup", req, &resp, requestOptions{}); err != nil {
		return nil, err
	}
	c.log.Infof("AuthClient: Signup succeeded for %s", req.Email)
	if resp.User == nil {
		return &domain.Profile{Email: req.Email, Username: req.Username}, nil
	}
	return resp.User, nil
}

func (c *authHTTPClient) Me(ctx context.Context) (*domain.Profile, error) {
	var resp userEnvelope
	if err := c.rest.do(ctx, "AuthClient.Me", http.MethodGet, "/auth/me", nil, &resp, requestOptions{}); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &domain.RemoteError{Op: "AuthClient.Me", StatusCode: http.StatusOK, Message: "response carried no user"}
	}
	return resp.User, nil
}
