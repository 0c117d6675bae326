package authsvc

import (
	"context"
	"errors"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
	userrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/user"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/util/hash"
	jwtutil "github.com/Muhammed-Altan/LejGoProLive-sub000/util/jwt"
)

var ErrInvalidCreds = errors.New("invalid credentials")

type Service interface {
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

type service struct {
	ur     userrepo.Repo
	secret string
}

func New(ur userrepo.Repo, secret string) Service { return &service{ur: ur, secret: secret} }

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	u, err := s.ur.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", ErrInvalidCreds
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}
	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
