package service

import (
	"context"
	"time"

	"github.com/fjsv09/profinanzas-sub000/internal/apperrors"
	"github.com/fjsv09/profinanzas-sub000/internal/config"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/model"
	"github.com/fjsv09/profinanzas-sub000/internal/policy"
	"github.com/fjsv09/profinanzas-sub000/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, id uuid.UUID) error
	ReactivarUsuario(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo repository.UsuarioRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperrors.Unauthorized("credenciales invalidas")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("credenciales invalidas")
	}

	return s.buildTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("refresh token invalido o expirado")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Unauthorized("claims invalidos")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, apperrors.Unauthorized("token mal formado")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, apperrors.Unauthorized("token mal formado")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Activo {
		return nil, apperrors.Unauthorized("usuario no encontrado o inactivo")
	}

	return s.buildTokens(user)
}

func (s *authService) buildTokens(user *model.Usuario) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"rol":      user.Rol,
		"exp":      time.Now().Add(ttl).Unix(),
		"iat":      time.Now().Unix(),
	}
	if user.SupervisorID != nil {
		claims["supervisor_id"] = user.SupervisorID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ── User administration ──────────────────────────────────────────────────────

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	rol := policy.ParseRole(req.Rol)
	if !rol.IsValid() {
		return nil, apperrors.Validation("rol invalido")
	}

	var supervisorID *uuid.UUID
	if rol == policy.RoleAsesor {
		if req.SupervisorID == nil {
			return nil, apperrors.Validation("un asesor requiere supervisor_id")
		}
		parsed, err := uuid.Parse(*req.SupervisorID)
		if err != nil {
			return nil, apperrors.Validation("supervisor_id invalido")
		}
		sup, err := s.repo.FindByID(ctx, parsed)
		if err != nil || policy.ParseRole(sup.Rol) != policy.RoleSupervisor {
			return nil, apperrors.Validation("el supervisor indicado no existe")
		}
		supervisorID = &parsed
	} else if req.SupervisorID != nil {
		return nil, apperrors.Validation("solo un asesor lleva supervisor_id")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, apperrors.Store("no se pudo generar el hash", err)
	}

	user := &model.Usuario{
		Username:     req.Username,
		Nombre:       req.Nombre,
		Email:        req.Email,
		PasswordHash: string(hash),
		Rol:          req.Rol,
		SupervisorID: supervisorID,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperrors.Conflict("no se pudo crear el usuario (username duplicado?)")
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	var (
		usuarios []model.Usuario
		err      error
	)
	if incluirInactivos {
		usuarios, err = s.repo.ListAll(ctx)
	} else {
		usuarios, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, apperrors.Store("no se pudo listar los usuarios", err)
	}
	out := make([]dto.UsuarioResponse, 0, len(usuarios))
	for i := range usuarios {
		out = append(out, usuarioToResponse(&usuarios[i]))
	}
	return out, nil
}

func (s *authService) ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("usuario no encontrado")
	}

	if req.Nombre != "" {
		user.Nombre = req.Nombre
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Rol != "" {
		if !policy.ParseRole(req.Rol).IsValid() {
			return nil, apperrors.Validation("rol invalido")
		}
		user.Rol = req.Rol
		if policy.ParseRole(req.Rol) != policy.RoleAsesor {
			user.SupervisorID = nil
		}
	}
	if req.SupervisorID != nil {
		parsed, err := uuid.Parse(*req.SupervisorID)
		if err != nil {
			return nil, apperrors.Validation("supervisor_id invalido")
		}
		if policy.ParseRole(user.Rol) != policy.RoleAsesor {
			return nil, apperrors.Validation("solo un asesor lleva supervisor_id")
		}
		user.SupervisorID = &parsed
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			return nil, apperrors.Store("no se pudo generar el hash", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperrors.Store("no se pudo actualizar el usuario", err)
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) DesactivarUsuario(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperrors.NotFound("usuario no encontrado")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return apperrors.Store("no se pudo desactivar el usuario", err)
	}
	return nil
}

func (s *authService) ReactivarUsuario(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperrors.NotFound("usuario no encontrado")
	}
	if err := s.repo.Reactivar(ctx, id); err != nil {
		return apperrors.Store("no se pudo reactivar el usuario", err)
	}
	return nil
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	resp := dto.UsuarioResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Nombre:   u.Nombre,
		Email:    u.Email,
		Rol:      u.Rol,
		Activo:   u.Activo,
	}
	if u.SupervisorID != nil {
		s := u.SupervisorID.String()
		resp.SupervisorID = &s
	}
	return resp
}
