package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	pkgjwt "github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// JWTConfig parámetros para emitir tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login y gestión de usuarios. El core del ledger solo consume el
// actor que sale de aquí; la decisión de quién puede llamar qué vive en el
// middleware RBAC.
type AuthUseCase struct {
	users repository.UserRepository
	jwt   JWTConfig
}

// NewAuthUseCase construye el caso de uso.
func NewAuthUseCase(users repository.UserRepository, jwt JWTConfig) *AuthUseCase {
	return &AuthUseCase{users: users, jwt: jwt}
}

// Login verifica credenciales y emite un JWT con el rol.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if in.Username == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	user, err := uc.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := pkgjwt.Generate(uc.jwt.Secret, user.ID, user.Username, user.Role, uc.jwt.Issuer, uc.jwt.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: toUserResponse(user)}, nil
}

// CreateUser crea una cuenta (solo Admin vía RBAC en el router).
func (uc *AuthUseCase) CreateUser(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if in.Username == "" || len(in.Password) < 8 {
		return nil, domain.ErrInvalidInput
	}
	switch in.Role {
	case entity.RoleAdmin, entity.RoleStorekeeper, entity.RoleStaff:
	default:
		return nil, domain.ErrInvalidInput
	}
	existing, _ := uc.users.GetByUsername(ctx, in.Username)
	if existing != nil {
		return nil, domain.ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ListUsers lista todas las cuentas.
func (uc *AuthUseCase) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := uc.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out, nil
}

// DeactivateUser desactiva una cuenta.
func (uc *AuthUseCase) DeactivateUser(ctx context.Context, id string) error {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return uc.users.Deactivate(ctx, id)
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
