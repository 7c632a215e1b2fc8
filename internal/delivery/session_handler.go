package delivery

import (
	"net/http"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SessionHandler struct {
	session domain.SessionCoordinator
	log     *logrus.Logger
}

func NewSessionHandler(session domain.SessionCoordinator, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		session: session,
		log:     logger,
	}
}

func (h *SessionHandler) RegisterRoutes(router gin.IRouter) {
	session := router.Group("/session")
	{
		session.GET("", h.GetSession)
		session.POST("/login", h.Login)
		session.POST("/signup", h.Signup)
		session.POST("/logout", h.Logout)
	}
}

type sessionView struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user"`
	Profile       *domain.Profile  `json:"profile,omitempty"`
	// Expired is true exactly once after a stored credential was found expired.
	Expired bool `json:"expired"`
}

// GetSession reports the current identity. The profile is best effort: a
// failed lookup is logged and the field left out.
func (h *SessionHandler) GetSession(c *gin.Context) {
	ctx := c.Request.Context()
	identity := h.session.Identity(ctx)
	view := sessionView{
		Authenticated: identity != nil,
		User:          identity,
		Expired:       h.session.ConsumeExpired(),
	}
	if identity != nil {
		profile, err := h.session.Profile(ctx)
		if err != nil {
			h.log.WithField("handler", "GetSession").Warnf("Profile lookup failed for user %s: %v", identity.ID, err)
		} else {
			view.Profile = profile
		}
	}
	SuccessResponse(c, http.StatusOK, "Session retrieved", view)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Email and password required")
		return
	}

	identity, err := h.session.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.WithField("handler", "Login").Warnf("Login failed: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Login failed: "+err.Error())
		return
	}

	h.log.Infof("User %s logged in", identity.ID)
	SuccessResponse(c, http.StatusOK, "Logged in", sessionView{Authenticated: true, User: identity})
}

type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

func (h *SessionHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Email and password required")
		return
	}

	profile, err := h.session.Signup(c.Request.Context(), domain.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		h.log.WithField("handler", "Signup").Warnf("Signup failed: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Signup failed: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "Signup successful", profile)
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.session.OnLogout(c.Request.Context()); err != nil {
		h.log.WithField("handler", "Logout").Errorf("Logout failed: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Logout failed: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Logged out", sessionView{})
}
