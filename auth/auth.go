// Package auth identifies the dashboard actor from a bearer token and checks
// role requirements.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rpupo63/portfolio-cms/errs"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Writers may create and edit content.
var Writers = []Role{RoleOwner, RoleEditor}

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Actor is the authenticated caller.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

type keyType string

const actorKey keyType = "actor"

// WithActor adds an actor to the context
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom retrieves the actor from the context
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// Require returns the actor of ctx when it holds one of roles.
func Require(ctx context.Context, roles ...Role) (Actor, error) {
	actor, ok := ActorFrom(ctx)
	if !ok || actor.ID == "" {
		return Actor{}, errs.NewMissingTokenError()
	}
	if !slices.Contains(roles, actor.Role) {
		return Actor{}, errs.NewInsufficientRoleError(fmt.Sprint(roles))
	}
	return actor, nil
}

type claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	issuer string
}

func NewTokens(secret, issuer string) (*Tokens, error) {
	if secret == "" {
		return nil, errs.NewConfigMissingError("JWT_SECRET")
	}
	return &Tokens{secret: []byte(secret), issuer: issuer}, nil
}

// Issue signs a token for actor valid for ttl.
func (t *Tokens) Issue(actor Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(t.secret)
}

// Parse verifies a token and returns its actor.
func (t *Tokens) Parse(raw string) (Actor, error) {
	var c claims
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return Actor{}, errs.NewInvalidTokenError(err)
	}
	if c.Subject == "" {
		return Actor{}, errs.NewInvalidTokenError(errors.New("token has no subject"))
	}
	if !c.Role.Valid() {
		return Actor{}, errs.NewInvalidTokenError(fmt.Errorf("unknown role %q", c.Role))
	}
	return Actor{ID: c.Subject, Role: c.Role}, nil
}
