package handlers

import (
	"time"

	"github.com/oksasatya/fintrack-auth/internal/application"
	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
)

type userView struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserView(u *entity.User) userView {
	return userView{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// sessionView never carries the refresh token.
type sessionView struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
	Current   bool      `json:"current"`
}

func toSessionViews(list []entity.Session, currentRefresh string) []sessionView {
	out := make([]sessionView, 0, len(list))
	for _, s := range list {
		out = append(out, sessionView{
			ID:        s.ID,
			UserAgent: s.UserAgent,
			IPAddress: s.IPAddress,
			CreatedAt: s.CreatedAt,
			Revoked:   s.Revoked,
			Current:   currentRefresh != "" && s.RefreshToken == currentRefresh,
		})
	}
	return out
}

type tokenView struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func toTokenView(p *application.TokenPair, now time.Time, withRefresh bool) tokenView {
	v := tokenView{
		AccessToken: p.AccessToken,
		TokenType:   p.TokenType,
		ExpiresIn:   int64(p.AccessTokenExpiry.Sub(now).Seconds()),
	}
	if withRefresh {
		v.RefreshToken = p.RefreshToken
	}
	return v
}
