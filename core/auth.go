package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"club-directory/pkg/resources"
)

const (
	tokenIssuer = "club-directory"

	purposeSession = "session"
	purposeInvite  = "invite"

	MinPasswordLength = 8
)

type AuthConfig struct {
	Secret    string
	TokenTTL  time.Duration
	InviteTTL time.Duration
}

type claims struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

type authenticator struct {
	tracer   trace.Tracer
	metrics  *DBMetrics
	pool     resources.DBInstance
	secret   []byte
	config   AuthConfig
	notifier *AuthNotifier
}

func NewAuthenticator(pool resources.DBInstance, config AuthConfig) Authenticator {
	if config.TokenTTL <= 0 {
		config.TokenTTL = 12 * time.Hour
	}

	if config.InviteTTL <= 0 {
		config.InviteTTL = 7 * 24 * time.Hour
	}

	return &authenticator{
		tracer:   otel.GetTracerProvider().Tracer("club-directory/auth"),
		metrics:  NewDBMetrics(),
		pool:     pool,
		secret:   []byte(config.Secret),
		config:   config,
		notifier: NewAuthNotifier(),
	}
}

func (a *authenticator) SignIn(ctx context.Context, email string, password string) (session *Session, err error) {
	defer a.metrics.Track(ctx, "sign_in", time.Now(), &err)

	ctx, span := a.tracer.Start(ctx, "auth.SignIn")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, NewValidationError("credentials", "email and password are required")
	}

	var (
		user User
		hash *string
	)

	err = a.pool.QueryRow(ctx,
		`SELECT id, email, password_hash
		 FROM users
		 WHERE lower(email) = lower($1)`,
		email,
	).Scan(&user.Id, &user.Email, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}

		return nil, NewBackendError("sign_in", fmt.Errorf("failed to get user: %w", err))
	}

	if hash == nil || bcrypt.CompareHashAndPassword([]byte(*hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return a.openSession(ctx, user)
}

func (a *authenticator) SignOut(ctx context.Context, token string) (err error) {
	defer a.metrics.Track(ctx, "sign_out", time.Now(), &err)

	ctx, span := a.tracer.Start(ctx, "auth.SignOut")
	defer span.End()

	c, err := a.parse(token, purposeSession)
	if err != nil {
		return err
	}

	_, err = a.pool.Exec(ctx,
		"INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING",
		c.ID, c.ExpiresAt.Time)
	if err != nil {
		return NewBackendError("sign_out", fmt.Errorf("failed to revoke token: %w", err))
	}

	a.notifier.Notify(AuthSignedOut, &User{Id: c.Subject, Email: c.Email})

	return nil
}

// CurrentUser resolves a session token. A user whose profile is missing is
// returned with a nil profile.
func (a *authenticator) CurrentUser(ctx context.Context, token string) (user *User, profile *Profile, err error) {
	defer a.metrics.Track(ctx, "current_user", time.Now(), &err)

	ctx, span := a.tracer.Start(ctx, "auth.CurrentUser")
	defer span.End()

	c, err := a.parse(token, purposeSession)
	if err != nil {
		return nil, nil, err
	}

	var revoked bool

	err = a.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)", c.ID).Scan(&revoked)
	if err != nil {
		return nil, nil, NewBackendError("current_user", fmt.Errorf("failed to check token: %w", err))
	}

	if revoked {
		return nil, nil, ErrInvalidToken
	}

	user = &User{Id: c.Subject, Email: c.Email}

	profile, err = a.loadProfile(ctx, user.Id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, nil, nil
		}

		return nil, nil, NewBackendError("current_user", fmt.Errorf("failed to get profile: %w", err))
	}

	return user, profile, nil
}

func (a *authenticator) OnAuthStateChange(listener AuthListener) func() {
	return a.notifier.Subscribe(listener)
}

// Invite creates (or reuses) the account for email, links it to the
// organization and returns a token to set the password with.
func (a *authenticator) Invite(ctx context.Context, email string, organizationId string) (invitation *Invitation, err error) {
	defer a.metrics.Track(ctx, "invite", time.Now(), &err)

	ctx, span := a.tracer.Start(ctx, "auth.Invite")
	defer span.End()

	email = strings.TrimSpace(email)

	err = ValidateEmail(email)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(organizationId) == "" {
		return nil, NewValidationError("organization_id", "is required")
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return nil, NewBackendError("invite", fmt.Errorf("failed to begin transaction: %w", err))
	}

	var userId string

	// DO NOTHING covers both the email and the lower(email) unique indexes.
	err = tx.QueryRow(ctx,
		"INSERT INTO users (id, email) VALUES ($1, $2) ON CONFLICT DO NOTHING RETURNING id",
		uuid.NewString(), email,
	).Scan(&userId)
	if err != nil {
		_ = tx.Rollback(ctx)

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyRegistered
		}

		return nil, NewBackendError("invite", fmt.Errorf("failed to create user: %w", err))
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO user_profiles (id, email, organization_id) VALUES ($1, $2, $3)",
		userId, email, organizationId)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, NewBackendError("invite", fmt.Errorf("failed to link user: %w", err))
	}

	err = tx.Commit(ctx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, NewBackendError("invite", fmt.Errorf("failed to commit transaction: %w", err))
	}

	token, expiresAt, err := a.issue(User{Id: userId, Email: email}, purposeInvite, a.config.InviteTTL)
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("component", "auth").Str("organization_id", organizationId).Msg("user invited")

	return &Invitation{
		UserId:         userId,
		Email:          email,
		OrganizationId: organizationId,
		Token:          token,
		ExpiresAt:      expiresAt,
	}, nil
}

func (a *authenticator) AcceptInvite(ctx context.Context, token string, password string) (session *Session, err error) {
	defer a.metrics.Track(ctx, "accept_invite", time.Now(), &err)

	ctx, span := a.tracer.Start(ctx, "auth.AcceptInvite")
	defer span.End()

	c, err := a.parse(token, purposeInvite)
	if err != nil {
		return nil, err
	}

	if len(password) < MinPasswordLength {
		return nil, NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// An invite is spent once a password is set.
	tag, err := a.pool.Exec(ctx,
		"UPDATE users SET password_hash = $2 WHERE id = $1 AND password_hash IS NULL", c.Subject, string(hash))
	if err != nil {
		return nil, NewBackendError("accept_invite", fmt.Errorf("failed to set password: %w", err))
	}

	if tag.RowsAffected() == 0 {
		return nil, ErrInvalidToken
	}

	return a.openSession(ctx, User{Id: c.Subject, Email: c.Email})
}

func (a *authenticator) openSession(ctx context.Context, user User) (*Session, error) {
	profile, err := a.loadProfile(ctx, user.Id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotLinked
		}

		return nil, NewBackendError("get_profile", fmt.Errorf("failed to get profile: %w", err))
	}

	if profile.Organization == nil {
		return nil, ErrNotLinked
	}

	token, expiresAt, err := a.issue(user, purposeSession, a.config.TokenTTL)
	if err != nil {
		return nil, err
	}

	a.notifier.Notify(AuthSignedIn, &user)

	return &Session{Token: token, ExpiresAt: expiresAt, User: user, Profile: *profile}, nil
}

func (a *authenticator) loadProfile(ctx context.Context, userId string) (*Profile, error) {
	var (
		p           Profile
		orgId       *string
		orgName     *string
		category    []string
		description *string
		website     *string
		email       *string
		image       *string
	)

	err := a.pool.QueryRow(ctx,
		`SELECT p.id, p.email, o.id, o.name, o.category, o.description, o.website, o.email, o.image
		 FROM user_profiles p
		 LEFT JOIN organizations o ON o.id = p.organization_id
		 WHERE p.id = $1`,
		userId,
	).Scan(&p.Id, &p.Email, &orgId, &orgName, &category, &description, &website, &email, &image)
	if err != nil {
		return nil, err
	}

	if orgId != nil && orgName != nil {
		p.Organization = &Organization{
			Id:       *orgId,
			Name:     *orgName,
			Category: normalizeCategories(category),
			Website:  website,
			Email:    email,
			Image:    image,
		}

		if description != nil {
			p.Organization.Description = *description
		}
	}

	return &p, nil
}

func (a *authenticator) issue(user User, purpose string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Purpose: purpose,
		Email:   user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.Id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (a *authenticator) parse(token string, purpose string) (*claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}

		return a.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Purpose != purpose || c.Subject == "" || c.ID == "" {
		return nil, ErrInvalidToken
	}

	return c, nil
}
