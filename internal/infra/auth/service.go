package auth

import (
	"errors"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service liga a whitelist de contas à emissão de tokens.
type Service struct {
	Users  *UserStore
	Tokens *Tokens
}

func NewService(users *UserStore, tokens *Tokens) *Service {
	return &Service{Users: users, Tokens: tokens}
}

type Session struct {
	User      entity.User
	Token     string
	ExpiresAt time.Time
}

func (s *Service) Login(username, password string) (*Session, error) {
	user, ok := s.Users.Verify(username, password)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	token, exp, err := s.Tokens.Issue(*user)
	if err != nil {
		return nil, err
	}
	return &Session{User: *user, Token: token, ExpiresAt: exp}, nil
}

// VerifyToken também exige que a conta ainda esteja na whitelist.
func (s *Service) VerifyToken(token string) (*entity.User, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, ok := s.Users.Lookup(claims.Subject)
	if !ok {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

func (s *Service) VerifyPassword(username, password string) (*entity.User, bool) {
	return s.Users.Verify(username, password)
}
