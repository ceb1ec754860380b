package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"hotel-portal/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hotelPtr(id int64) *int64 { return &id }

func TestPrincipalScope(t *testing.T) {
	tests := []struct {
		name    string
		p       Principal
		want    models.Scope
		wantErr error
	}{
		{"platform admin global", Principal{Role: RolePlatformAdmin}, models.AllHotels(), nil},
		{"platform admin pinned", Principal{Role: RolePlatformAdmin, HotelID: hotelPtr(4)}, models.HotelScope(4), nil},
		{"hotel admin", Principal{Role: RoleHotelAdmin, HotelID: hotelPtr(2)}, models.HotelScope(2), nil},
		{"staff without hotel", Principal{Role: RoleStaff}, models.Scope{}, models.ErrForbidden},
		{"unknown role", Principal{Role: "GUEST", HotelID: hotelPtr(2)}, models.Scope{}, models.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Scope()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderResolver(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	p, err := HeaderResolver{}.Resolve(r)
	require.NoError(t, err)
	assert.Nil(t, p)

	r.Header.Set(HeaderUser, "u-1")
	r.Header.Set(HeaderRole, "staff")
	r.Header.Set(HeaderHotel, "7")
	p, err = HeaderResolver{}.Resolve(r)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, RoleStaff, p.Role)
	require.NotNil(t, p.HotelID)
	assert.Equal(t, int64(7), *p.HotelID)

	r.Header.Set(HeaderHotel, "abc")
	_, err = HeaderResolver{}.Resolve(r)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestMiddleware_AttachesPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(HeaderResolver{}))
	router.GET("/who", func(c *gin.Context) {
		p, ok := FromContext(c)
		if !ok {
			c.String(http.StatusUnauthorized, "anonymous")
			return
		}
		c.String(http.StatusOK, p.UserID)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(HeaderUser, "admin")
	req.Header.Set(HeaderRole, RolePlatformAdmin)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
}
