package wrenbase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SessionProvider resolves the identity attached to outgoing analytics
// events. The default implementation asks the platform's session endpoint;
// applications that manage authentication themselves can supply their own.
//
// Returning ErrNoSession means "nobody is signed in"; the pipeline then
// attributes events to a generated anonymous visitor id. Any other error
// is treated as a transient failure and retried on a later flush cycle.
type SessionProvider interface {
	// CurrentUser returns the identifier of the signed-in user.
	CurrentUser(ctx context.Context) (string, error)
}

// sessionContext is the resolved identity cached on the shared state.
// Once resolved it is immutable for the lifetime of the shared state.
type sessionContext struct {
	userID string
}

// resolveSession returns the cached session context, performing at most
// one identity lookup when none is cached yet. A failed lookup is NOT
// cached: the next flush cycle retries, so a transient auth outage never
// permanently poisons the pipeline.
//
// The drain loop is the only long-lived caller and is single-flight, so
// overlapping lookups cannot race on the cache.
func (s *sharedState) resolveSession(ctx context.Context, provider SessionProvider) (*sessionContext, error) {
	s.mu.Lock()
	cached := s.session
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	userID, err := provider.CurrentUser(ctx)
	switch {
	case errors.Is(err, ErrNoSession):
		// Anonymous visitor: mint a stable id so the whole browsing
		// session stays attributable to one identity.
		userID = "anon-" + uuid.NewString()
	case err != nil:
		return nil, fmt.Errorf("resolve session context: %w", err)
	}

	session := &sessionContext{userID: userID}
	s.mu.Lock()
	// Keep the first resolution if another path won the race.
	if s.session == nil {
		s.session = session
	}
	session = s.session
	s.mu.Unlock()
	return session, nil
}

// platformSession is the default SessionProvider, backed by the platform's
// own session endpoint.
type platformSession struct {
	transport *httpTransport
	appID     string
}

// sessionResponse is the body of GET /api/apps/{appID}/auth/me.
type sessionResponse struct {
	ID string `json:"id"`
}

// CurrentUser asks the platform who is signed in. A 401/404 response maps
// to ErrNoSession; everything else surfaces as a transient error.
func (p *platformSession) CurrentUser(ctx context.Context) (string, error) {
	path := fmt.Sprintf("/api/apps/%s/auth/me", p.appID)
	var resp sessionResponse
	if err := p.transport.get(ctx, path, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == 401 || apiErr.StatusCode == 404) {
			return "", ErrNoSession
		}
		return "", err
	}
	if resp.ID == "" {
		return "", ErrNoSession
	}
	return resp.ID, nil
}
