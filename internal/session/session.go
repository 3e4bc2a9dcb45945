package session

import (
	"context"
	"errors"
	"fmt"

	"lmswatch-backend/internal/assert"
	"lmswatch-backend/internal/db"
	"lmswatch-backend/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lmswatch.session")

const (
	report_session_load  = "session.load"
	report_session_probe = "session.probe"
	report_session_login = "session.login"
	report_session_store = "session.store"
)

// ErrLoginFailed is returned when the portal rejects a user's credentials.
var ErrLoginFailed = errors.New("login failed: invalid username or password")

// PortalAPI is the part of the portal client sessions depend on.
type PortalAPI interface {
	Probe(ctx context.Context, token string) (bool, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// TokenStore persists one token per user.
type TokenStore interface {
	GetSessionToken(ctx context.Context, userID int64) (string, error)
	UpsertSessionToken(ctx context.Context, userID int64, token string) error
}

// Session is an authentication token that can be reused in place of logging in.
type Session struct {
	UserID int64
	Token  string
}

type Manager struct {
	portal PortalAPI
	store  TokenStore
	tel    telemetry.API
}

func NewManager(portal PortalAPI, store TokenStore, tel telemetry.API) Manager {
	assert.NotNil(portal, "portal")
	assert.NotNil(store, "token store")
	assert.NotNil(tel, "telemetry")

	return Manager{
		portal: portal,
		store:  store,
		tel:    telemetry.NewScopedAPI("session", tel),
	}
}

// GetValidSession returns the stored session of a user if the portal still
// accepts it, otherwise it logs in again and replaces the stored session.
//
// The stored token is cleared when login fails. No retries are attempted.
func (m Manager) GetValidSession(ctx context.Context, user db.User) (Session, error) {
	ctx, span := tracer.Start(ctx, "GetValidSession", trace.WithAttributes(
		attribute.Int64("user_id", user.ID),
	))
	defer span.End()

	token, err := m.store.GetSessionToken(ctx, user.ID)
	if err != nil {
		m.tel.ReportBroken(report_session_load, err, user.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load session")
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	// an empty token is never valid, so the probe is skipped
	if token != "" {
		valid, err := m.portal.Probe(ctx, token)
		if err != nil {
			m.tel.ReportWarning(report_session_probe, err, user.ID)
		}
		if err == nil && valid {
			span.SetAttributes(attribute.Bool("reused", true))
			return Session{UserID: user.ID, Token: token}, nil
		}
	}

	m.tel.ReportDebug("logging in", user.ID, user.Username)
	token, err = m.portal.Login(ctx, user.Username, user.Password)
	if err != nil {
		m.tel.ReportBroken(report_session_login, err, user.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return Session{}, fmt.Errorf("login: %w", err)
	}

	storeErr := m.store.UpsertSessionToken(ctx, user.ID, token)
	if storeErr != nil {
		m.tel.ReportBroken(report_session_store, storeErr, user.ID)
	}

	if token == "" {
		m.tel.ReportWarning(report_session_login, ErrLoginFailed, user.ID, user.Username)
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		return Session{}, ErrLoginFailed
	}
	if storeErr != nil {
		span.RecordError(storeErr)
		span.SetStatus(codes.Error, "failed to store session")
		return Session{}, fmt.Errorf("store session: %w", storeErr)
	}
	return Session{UserID: user.ID, Token: token}, nil
}
