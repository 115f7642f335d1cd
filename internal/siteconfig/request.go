package siteconfig

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/majorjayant/siteconfig/pkg/errors"
)

// Operation is what a normalised request asks the service to do.
type Operation int

const (
	OpPreflight Operation = iota + 1
	OpGetConfig
	OpPutConfig
	OpLogin
)

func (o Operation) String() string {
	switch o {
	case OpPreflight:
		return "preflight"
	case OpGetConfig:
		return "get_config"
	case OpPutConfig:
		return "put_config"
	case OpLogin:
		return "login"
	}
	return "unknown"
}

// TypeSiteConfig is the only accepted value of the type query parameter.
const TypeSiteConfig = "site_config"

const (
	actionLogin  = "login"
	actionUpdate = "update_site_config"
	actionGet    = "get_site_config"
)

// Request is a transport-independent view of an incoming call.
type Request struct {
	Op       Operation
	Partial  map[string]any
	Username string
	Password string
}

// ParseRequest maps the loosely shaped inputs the front end sends onto one
// operation. The returned error is always an *apperrors.AppError.
func ParseRequest(method, typeParam string, body []byte) (Request, error) {
	switch strings.ToUpper(method) {
	case http.MethodOptions:
		return Request{Op: OpPreflight}, nil
	case http.MethodGet:
		if typeParam != TypeSiteConfig {
			return Request{}, apperrors.ErrUnsupportedType
		}
		return Request{Op: OpGetConfig}, nil
	case http.MethodPost:
		return parsePost(typeParam, body)
	}
	return Request{}, apperrors.ErrUnrecognizedRequest
}

func parsePost(typeParam string, body []byte) (Request, error) {
	payload, err := decodeObject(body)
	if err != nil {
		return Request{}, err
	}

	action, hasAction := payload["action"]
	if hasAction {
		name, ok := action.(string)
		if !ok {
			return Request{}, apperrors.NewInvalidPayload("action must be a string")
		}

		switch name {
		case actionLogin:
			return parseLogin(payload)
		case actionUpdate:
			partial, err := siteConfigField(payload)
			if err != nil {
				return Request{}, err
			}
			return Request{Op: OpPutConfig, Partial: partial}, nil
		case actionGet:
			return Request{Op: OpGetConfig}, nil
		}
		return Request{}, apperrors.ErrUnrecognizedRequest
	}

	if _, wrapped := payload["site_config"]; wrapped {
		partial, err := siteConfigField(payload)
		if err != nil {
			return Request{}, err
		}
		return Request{Op: OpPutConfig, Partial: partial}, nil
	}

	if typeParam == TypeSiteConfig {
		return Request{Op: OpPutConfig, Partial: payload}, nil
	}

	return Request{}, apperrors.ErrUnrecognizedRequest
}

func parseLogin(payload map[string]any) (Request, error) {
	username, err := optionalString(payload, "username")
	if err != nil {
		return Request{}, err
	}
	password, err := optionalString(payload, "password")
	if err != nil {
		return Request{}, err
	}
	return Request{Op: OpLogin, Username: username, Password: password}, nil
}

func optionalString(payload map[string]any, field string) (string, error) {
	raw, ok := payload[field]
	if !ok || raw == nil {
		return "", nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", apperrors.NewInvalidPayload(field + " must be a string")
	}
	return value, nil
}

func siteConfigField(payload map[string]any) (map[string]any, error) {
	partial, ok := payload["site_config"].(map[string]any)
	if !ok {
		return nil, apperrors.NewInvalidPayload("site_config must be an object")
	}
	return partial, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, apperrors.NewInvalidPayload("request body is required")
	}
	if trimmed[0] != '{' {
		return nil, apperrors.NewInvalidPayload("request body must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, apperrors.NewInvalidPayload("request body is not valid JSON")
	}
	if dec.More() {
		return nil, apperrors.NewInvalidPayload("request body must contain a single JSON object")
	}
	return payload, nil
}
