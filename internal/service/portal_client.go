package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
	"github.com/noah-isme/samvidha-portal-api/pkg/browser"
)

type sessionPool interface {
	Acquire(ctx context.Context) (browser.Session, error)
	Release(sess browser.Session)
}

type portalAuthenticator interface {
	Login(ctx context.Context, drv browser.Driver, creds models.Credentials) error
}

// PortalClient is the shared authenticated-session helper: it borrows a
// browser session from the pool, performs the login once and hands the
// ready session to a per-feature routine. Every scraping flow goes through
// here so there is exactly one login sequence in the codebase.
type PortalClient struct {
	pool      sessionPool
	navigator portalAuthenticator
	logger    *zap.Logger
}

// NewPortalClient constructs the helper.
func NewPortalClient(pool sessionPool, navigator portalAuthenticator, logger *zap.Logger) *PortalClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalClient{pool: pool, navigator: navigator, logger: logger}
}

// WithLogin runs fn against a session that is already authenticated as
// creds. The session is returned to the pool when fn finishes, so fn must
// not retain the driver.
func (c *PortalClient) WithLogin(ctx context.Context, creds models.Credentials, fn func(ctx context.Context, drv browser.Driver) error) error {
	sess, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.pool.Release(sess)

	if err := c.navigator.Login(ctx, sess, creds); err != nil {
		c.logger.Debug("portal login failed",
			zap.String("username", creds.Username), zap.Error(err))
		return err
	}
	return fn(ctx, sess)
}
