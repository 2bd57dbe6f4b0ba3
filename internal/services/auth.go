package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/contactos-backend/internal/data/repos"
	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/ctxutil"
	"github.com/yungbote/contactos-backend/internal/platform/dbctx"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*TokenResponse, error)
	Login(ctx context.Context, in LoginInput) (*TokenResponse, error)
	// ResolveUser verifies a bearer token and loads the user it names.
	ResolveUser(ctx context.Context, token string) (*types.User, error)
	Me(ctx context.Context) (*types.User, error)
	GetAccessTTL() time.Duration
}

const userLookupTimeout = 5 * time.Second

type AuthConfig struct {
	JWTSecretKey string
	AccessTTL    time.Duration
	BcryptCost   int
}

type JWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	userRepo  repos.UserRepo
	throttle  LoginThrottle
	secret    []byte
	accessTTL time.Duration
	cost      int
	lookups   singleflight.Group
	dummyHash []byte
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, throttle LoginThrottle, cfg AuthConfig) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if throttle == nil {
		throttle = NoopLoginThrottle{}
	}
	serviceLog := log.With("service", "AuthService")
	dummy, err := bcrypt.GenerateFromPassword([]byte("contactos-dummy-password"), cfg.BcryptCost)
	if err != nil {
		serviceLog.Warn("Failed to build dummy bcrypt hash", "error", err)
	}
	return &authService{
		db:        db,
		log:       serviceLog,
		userRepo:  userRepo,
		throttle:  throttle,
		secret:    []byte(cfg.JWTSecretKey),
		accessTTL: cfg.AccessTTL,
		cost:      cfg.BcryptCost,
		dummyHash: dummy,
	}
}

func (as *authService) Signup(ctx context.Context, in SignupInput) (*TokenResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	violations := fieldViolations(&in)
	if len(in.Password) > 72 && len([]rune(in.Password)) <= 72 {
		violations = append(violations, apierr.FieldError{Field: "password", Message: "Debe tener como máximo 72 bytes"})
	}
	if len(violations) > 0 {
		return nil, apierr.Validation(violations)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), as.cost)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("hash password: %w", err))
	}
	user := &types.User{
		Email:    in.Email,
		Username: in.Username,
		Password: string(hash),
	}

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		taken, err := as.userRepo.EmailExists(dbc, in.Email)
		if err != nil {
			return apierr.Storage(fmt.Errorf("check email: %w", err))
		}
		if taken {
			return apierr.Conflict("email_taken", "Email ya registrado")
		}
		taken, err = as.userRepo.UsernameExists(dbc, in.Username)
		if err != nil {
			return apierr.Storage(fmt.Errorf("check username: %w", err))
		}
		if taken {
			return apierr.Conflict("username_taken", "Nombre de usuario ya registrado")
		}
		if err := as.userRepo.Create(dbc, user); err != nil {
			if errors.Is(err, repos.ErrDuplicate) {
				return apierr.Conflict("email_taken", "Email o nombre de usuario ya registrado")
			}
			return apierr.Storage(fmt.Errorf("create user: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	as.log.Info("User registered", "user_id", user.ID)
	return as.issue(user)
}

func (as *authService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apierr.InvalidCredentials()
	}
	if as.throttle.Blocked(ctx, email) {
		return nil, apierr.TooManyRequests("Demasiados intentos fallidos, intente más tarde")
	}

	user, err := as.userRepo.GetByEmail(dbctx.Of(ctx), email)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("load user: %w", err))
	}
	if user == nil {
		// Same bcrypt cost on both paths.
		_ = bcrypt.CompareHashAndPassword(as.dummyHash, []byte(in.Password))
		as.throttle.Fail(ctx, email)
		return nil, apierr.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		as.throttle.Fail(ctx, email)
		as.log.Debug("Login rejected", "user_id", user.ID)
		return nil, apierr.InvalidCredentials()
	}
	as.throttle.Reset(ctx, email)
	return as.issue(user)
}

func (as *authService) issue(user *types.User) (*TokenResponse, error) {
	tok, err := as.generateAccessToken(user)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("sign token: %w", err))
	}
	return &TokenResponse{AccessToken: tok, TokenType: "bearer", Username: user.Username}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.secret)
}

func (as *authService) ResolveUser(ctx context.Context, tokenString string) (*types.User, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, apierr.Unauthorized(fmt.Errorf("missing token"))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, apierr.Unauthorized(fmt.Errorf("parse token: %w", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid subject: %w", err))
	}

	// The shared lookup runs detached so one caller going away does not fail
	// the others waiting on it; each caller still honours its own ctx.
	ch := as.lookups.DoChan(userID.String(), func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), userLookupTimeout)
		defer cancel()
		return as.userRepo.GetByID(dbctx.Of(lookupCtx), userID)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, apierr.Unavailable("request_cancelled", "Solicitud cancelada")
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, apierr.Storage(fmt.Errorf("load user: %w", res.Err))
	}
	user, _ := res.Val.(*types.User)
	if user == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("user %s no longer exists", userID))
	}
	return user, nil
}

func (as *authService) Me(ctx context.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("not authenticated"))
	}
	user, err := as.userRepo.GetByID(dbctx.Of(ctx), rd.UserID)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("load user: %w", err))
	}
	if user == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("user %s no longer exists", rd.UserID))
	}
	return user, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
