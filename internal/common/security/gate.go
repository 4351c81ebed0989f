package security

import (
	"net/http"
	"subhub/internal/common"
	"subhub/internal/domain/model"
)

// Requirement describes what an endpoint demands of the caller.
type Requirement struct {
	AdminOnly bool
	// SubjectID scopes the endpoint to one record; users may only reach their own.
	SubjectID string
}

// Verdict is the outcome of a Gate check. Err is nil when the request is allowed.
type Verdict struct {
	Principal model.Principal
	Status    int
	Err       error
	// ClearCookie is set when the client presented a dead token and should drop it.
	ClearCookie bool
}

func (v Verdict) Allowed() bool {
	return v.Err == nil
}

type Gate struct {
	codec *TokenCodec
}

func NewGate(codec *TokenCodec) *Gate {
	return &Gate{codec: codec}
}

// Check runs the full per-request decision against a raw Cookie header.
func (g *Gate) Check(cookieHeader string, req Requirement) Verdict {
	token, ok := ExtractToken(cookieHeader)
	if !ok {
		return deny(common.ErrNotAuthenticated, false)
	}
	principal, err := g.codec.Verify(token)
	if err != nil {
		return deny(common.ErrSessionInvalid, true)
	}
	if err := g.Authorize(principal, req); err != nil {
		v := deny(err, false)
		v.Principal = principal
		return v
	}
	return Verdict{Principal: principal, Status: http.StatusOK}
}

// Authorize applies the role and subject rules to an already verified principal.
func (g *Gate) Authorize(p model.Principal, req Requirement) error {
	if req.AdminOnly && !p.IsAdmin() {
		return common.ErrForbidden
	}
	if req.SubjectID != "" && !p.CanAccess(req.SubjectID) {
		return common.ErrForbidden
	}
	return nil
}

func deny(err error, clear bool) Verdict {
	return Verdict{Status: common.HTTPStatusFromError(err), Err: err, ClearCookie: clear}
}
