//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"
	"time"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Register(username, email, password string) (Token, repositories.User, error)
	Login(email, password string) (Token, repositories.User, error)
	Verify(token string) (auth.Identity, error)
}

type AuthService struct {
	userRepository    repositories.IUserRepository
	authTokenDuration time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, authTokenDuration time.Duration) IAuthService {
	return &AuthService{userRepository: repo, authTokenDuration: authTokenDuration}
}

func (s *AuthService) Register(username, email, password string) (Token, repositories.User, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}

	// 1. Validate business rules (email format, password complexity)
	// We check this before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", repositories.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash the password using Argon2id
	// Done in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", repositories.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash
	user, err := s.userRepository.CreateUser(username, email, hashedPassword)
	if err != nil {
		return "", repositories.User{}, err // Propagates ErrUserAlreadyExists if email is taken
	}

	// 4. Generate the initial session token
	token, err := auth.GenerateToken(user.ID, user.Username, user.Roles, s.authTokenDuration)
	if err != nil {
		return "", repositories.User{}, errors.ErrTokenGeneration
	}

	return Token(token), user, nil
}

func (s *AuthService) Login(email, password string) (Token, repositories.User, error) {
	// 1. Retrieve user by email from storage
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", repositories.User{}, errors.ErrInvalidCredentials
	}

	// 2. Compare the provided password with the stored hash
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", repositories.User{}, errors.ErrInvalidCredentials
	}

	// 3. Issue the JWT token
	token, err := auth.GenerateToken(user.ID, user.Username, user.Roles, s.authTokenDuration)
	if err != nil {
		return "", repositories.User{}, errors.ErrTokenGeneration
	}

	return Token(token), user, nil
}

// Verify resolves a raw token into the identity the gateway binds to a
// session. Any parse or signature failure maps to ErrUnauthorized.
func (s *AuthService) Verify(token string) (auth.Identity, error) {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %v", errors.ErrUnauthorized, err)
	}
	return auth.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Roles:    claims.Roles,
	}, nil
}
