package siteconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/majorjayant/siteconfig/pkg/errors"
)

func TestParseRequest(t *testing.T) {
	cases := []struct {
		name      string
		method    string
		typeParam string
		body      string
		wantOp    Operation
		wantErr   *apperrors.AppError
	}{
		{name: "preflight", method: "OPTIONS", body: "not json", wantOp: OpPreflight},
		{name: "get site config", method: "GET", typeParam: "site_config", wantOp: OpGetConfig},
		{name: "get other type", method: "GET", typeParam: "projects", wantErr: apperrors.ErrUnsupportedType},
		{name: "get missing type", method: "GET", wantErr: apperrors.ErrUnsupportedType},
		{name: "login", method: "POST", body: `{"action":"login","username":"admin","password":"pw"}`, wantOp: OpLogin},
		{name: "login without fields", method: "POST", body: `{"action":"login"}`, wantOp: OpLogin},
		{name: "login non-string", method: "POST", body: `{"action":"login","username":1,"password":"pw"}`, wantErr: apperrors.ErrInvalidPayload},
		{name: "update action", method: "POST", body: `{"action":"update_site_config","site_config":{"about_title":"x"}}`, wantOp: OpPutConfig},
		{name: "update action without object", method: "POST", body: `{"action":"update_site_config","site_config":"x"}`, wantErr: apperrors.ErrInvalidPayload},
		{name: "typed post", method: "POST", typeParam: "site_config", body: `{"about_title":"x"}`, wantOp: OpPutConfig},
		{name: "wrapped without action", method: "POST", body: `{"site_config":{"about_title":"x"}}`, wantOp: OpPutConfig},
		{name: "get action", method: "POST", body: `{"action":"get_site_config"}`, wantOp: OpGetConfig},
		{name: "unknown action", method: "POST", body: `{"action":"delete_everything"}`, wantErr: apperrors.ErrUnrecognizedRequest},
		{name: "non-string action", method: "POST", body: `{"action":42}`, wantErr: apperrors.ErrInvalidPayload},
		{name: "untyped object", method: "POST", body: `{"about_title":"x"}`, wantErr: apperrors.ErrUnrecognizedRequest},
		{name: "empty body", method: "POST", wantErr: apperrors.ErrInvalidPayload},
		{name: "non json", method: "POST", typeParam: "site_config", body: `about_title=x`, wantErr: apperrors.ErrInvalidPayload},
		{name: "array body", method: "POST", typeParam: "site_config", body: `[{"about_title":"x"}]`, wantErr: apperrors.ErrInvalidPayload},
		{name: "truncated json", method: "POST", body: `{"action":"login"`, wantErr: apperrors.ErrInvalidPayload},
		{name: "trailing data", method: "POST", body: `{"action":"login"} {}`, wantErr: apperrors.ErrInvalidPayload},
		{name: "delete", method: "DELETE", typeParam: "site_config", wantErr: apperrors.ErrUnrecognizedRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseRequest(tc.method, tc.typeParam, []byte(tc.body))
			if tc.wantErr != nil {
				requireAppError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantOp, req.Op)
		})
	}
}

func TestParseRequestUnwrapsSiteConfig(t *testing.T) {
	req, err := ParseRequest("POST", "", []byte(`{"action":"update_site_config","site_config":{"about_title":"x","years":7}}`))
	require.NoError(t, err)
	require.Equal(t, OpPutConfig, req.Op)
	require.Equal(t, map[string]any{"about_title": "x", "years": json.Number("7")}, req.Partial)

	req, err = ParseRequest("POST", "site_config", []byte(`{"site_config":{"about_title":"y"}}`))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"about_title": "y"}, req.Partial)
}

func TestParseRequestLoginFields(t *testing.T) {
	req, err := ParseRequest("post", "", []byte(`{"action":"login","username":"admin","password":"pw"}`))
	require.NoError(t, err)
	require.Equal(t, "admin", req.Username)
	require.Equal(t, "pw", req.Password)
	require.Equal(t, "login", req.Op.String())
}
