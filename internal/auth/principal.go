// Package auth resolves the portal operator behind a request. Sessions and
// logins live upstream; this package only reads the identity they forward.
package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"hotel-portal/internal/models"

	"github.com/gin-gonic/gin"
)

// Operator roles
const (
	RolePlatformAdmin = "PLATFORM_ADMIN"
	RoleHotelAdmin    = "HOTEL_ADMIN"
	RoleStaff         = "STAFF"
)

// Identity headers set by the upstream session layer
const (
	HeaderUser  = "X-Portal-User"
	HeaderRole  = "X-Portal-Role"
	HeaderHotel = "X-Portal-Hotel"
)

const principalKey = "portal.principal"

// Principal is an authenticated operator
type Principal struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	HotelID *int64 `json:"hotel_id,omitempty"`
}

// Scope returns the hotels the principal may see. Hotel staff without a
// hotel and unknown roles are forbidden.
func (p *Principal) Scope() (models.Scope, error) {
	switch p.Role {
	case RolePlatformAdmin:
		if p.HotelID != nil {
			return models.HotelScope(*p.HotelID), nil
		}
		return models.AllHotels(), nil
	case RoleHotelAdmin, RoleStaff:
		if p.HotelID == nil {
			return models.Scope{}, fmt.Errorf("%w: %s has no hotel", models.ErrForbidden, p.Role)
		}
		return models.HotelScope(*p.HotelID), nil
	default:
		return models.Scope{}, fmt.Errorf("%w: unknown role %q", models.ErrForbidden, p.Role)
	}
}

// IsPlatformAdmin reports whether the principal administers the whole platform
func (p *Principal) IsPlatformAdmin() bool {
	return p.Role == RolePlatformAdmin
}

// Resolver extracts a principal from a request; nil means anonymous
type Resolver interface {
	Resolve(r *http.Request) (*Principal, error)
}

// HeaderResolver trusts the identity headers of an upstream proxy
type HeaderResolver struct{}

// Resolve reads the identity headers
func (HeaderResolver) Resolve(r *http.Request) (*Principal, error) {
	user := strings.TrimSpace(r.Header.Get(HeaderUser))
	if user == "" {
		return nil, nil
	}
	p := &Principal{
		UserID: user,
		Role:   strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderRole))),
	}
	if raw := strings.TrimSpace(r.Header.Get(HeaderHotel)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: bad hotel header %q", models.ErrInvalidInput, raw)
		}
		p.HotelID = &id
	}
	return p, nil
}

// Middleware attaches the resolved principal to the gin context, if any
func Middleware(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := resolver.Resolve(c.Request)
		if err == nil && p != nil {
			c.Set(principalKey, p)
		}
		c.Next()
	}
}

// FromContext returns the principal attached by Middleware
func FromContext(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// WithPrincipal attaches a principal directly
func WithPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}
