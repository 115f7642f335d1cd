package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/majorjayant/siteconfig/internal/middleware"
	"github.com/majorjayant/siteconfig/internal/siteconfig"
	appErrors "github.com/majorjayant/siteconfig/pkg/errors"
	"github.com/majorjayant/siteconfig/pkg/logger"
	"github.com/majorjayant/siteconfig/pkg/response"
)

// MaxBodyBytes caps request bodies; a full configuration is a few kilobytes.
const MaxBodyBytes = 1 << 20

// SiteConfigHandler serves the single configuration endpoint.
type SiteConfigHandler struct {
	svc          *siteconfig.Service
	requireToken bool
	log          *zap.Logger
}

// NewSiteConfigHandler builds the endpoint handler. With requireToken set,
// writes need a bearer token issued by login.
func NewSiteConfigHandler(svc *siteconfig.Service, requireToken bool) *SiteConfigHandler {
	return &SiteConfigHandler{
		svc:          svc,
		requireToken: requireToken,
		log:          logger.WithModule("handlers"),
	}
}

type readResponse struct {
	response.Response
	SiteConfig siteconfig.Configuration `json:"site_config"`
	Origin     siteconfig.Origin        `json:"origin"`
	Warning    string                   `json:"warning,omitempty"`
}

type loginResponse struct {
	response.Response
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      siteconfig.User `json:"user"`
}

// Handle dispatches GET, POST and OPTIONS on the endpoint.
// OPTIONS is answered before the body is read, so preflights always succeed.
func (h *SiteConfigHandler) Handle(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		c.JSON(http.StatusOK, response.Response{Success: true})
		return
	}

	body, err := readBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	req, err := siteconfig.ParseRequest(c.Request.Method, c.Query("type"), body)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch req.Op {
	case siteconfig.OpPreflight:
		c.JSON(http.StatusOK, response.Response{Success: true})
	case siteconfig.OpGetConfig:
		h.getConfig(c)
	case siteconfig.OpPutConfig:
		h.putConfig(c, req.Partial)
	case siteconfig.OpLogin:
		h.login(c, req.Username, req.Password)
	default:
		response.Error(c, appErrors.ErrUnrecognizedRequest)
	}
}

func (h *SiteConfigHandler) getConfig(c *gin.Context) {
	res := h.svc.GetConfig(requestContext(c))
	if res.Err != nil {
		h.log.Warn("serving default configuration",
			zap.String("origin", string(res.Origin)),
			zap.Error(res.Err),
		)
	}

	response.JSON(c, http.StatusOK, readResponse{
		Response:   response.Response{Success: true},
		SiteConfig: res.Config,
		Origin:     res.Origin,
		Warning:    readWarning(res),
	})
}

func (h *SiteConfigHandler) putConfig(c *gin.Context, partial map[string]any) {
	if h.requireToken {
		if _, ok := middleware.ClaimsFromContext(c); !ok {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
	}

	if _, err := h.svc.PutConfig(requestContext(c), partial); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Site configuration updated successfully")
}

func (h *SiteConfigHandler) login(c *gin.Context, username, password string) {
	result, err := h.svc.Login(requestContext(c), username, password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, loginResponse{
		Response:  response.Response{Success: true, Message: "Login successful"},
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	})
}

func readWarning(res siteconfig.Result) string {
	switch {
	case res.Origin == siteconfig.OriginTimeout:
		return "Configuration store did not answer in time; defaults served"
	case res.Origin == siteconfig.OriginDefault && res.Err != nil:
		return "Configuration store unavailable; defaults served"
	}
	return ""
}

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, appErrors.NewInvalidPayload("Request body is too large")
		}
		return nil, appErrors.NewInvalidPayload("Request body could not be read")
	}
	return body, nil
}

// requestContext falls back to a background context for handlers driven
// without an *http.Request.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}
