package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"marketplace/internal/domain/message"
	"marketplace/internal/domain/submission"
	"marketplace/internal/domain/user"
	"marketplace/internal/shared/auth"
)

var (
	// ErrFormUsed is returned when a form token that was already submitted
	// is posted again with different text.
	ErrFormUsed = errors.New("form already used")
	// ErrSubmissionPending is returned while another request holds the
	// claim on the same form token.
	ErrSubmissionPending = errors.New("submission in progress")
)

// FormTokens issues the token embedded in the message form and verifies it on submit.
type FormTokens interface {
	Issue(marketplaceID string) (string, *auth.FormClaims, error)
	Verify(token string) (*auth.FormClaims, error)
}

// Page is everything the marketplace page needs to render.
type Page struct {
	Connection       user.Connection
	AuthorizationURL string
	FormToken        string
	Messages         []message.Message
}

// Connected reports whether the form should be shown.
func (p *Page) Connected() bool {
	_, ok := p.Connection.(user.Connected)
	return ok
}

// SubmitParams is the decoded message form.
type SubmitParams struct {
	Text  string
	Token string
}

// Service contains the page read path and the submission action
type Service struct {
	users    user.API
	messages message.API
	ledger   submission.Repository
	tokens   FormTokens
	logger   zerolog.Logger
	now      func() time.Time
	inflight singleflight.Group
}

// NewService creates a new marketplace page service
func NewService(users user.API, messages message.API, ledger submission.Repository, tokens FormTokens, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		messages: messages,
		ledger:   ledger,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// LoadPage performs the three independent reads and, when the user is
// connected, issues a form token pinned to the observed marketplace.
// Any read failure fails the whole page.
func (s *Service) LoadPage(ctx context.Context) (*Page, error) {
	var (
		u        *user.User
		messages []message.Message
		authURL  string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if u, err = s.users.Fetch(gctx); err != nil {
			return fmt.Errorf("failed to fetch user: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if messages, err = s.messages.List(gctx); err != nil {
			return fmt.Errorf("failed to list messages: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if authURL, err = s.users.Authorize(gctx); err != nil {
			return fmt.Errorf("failed to fetch authorization url: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &Page{
		Connection:       u.Connection(),
		AuthorizationURL: authURL,
		Messages:         messages,
	}

	if c, ok := page.Connection.(user.Connected); ok {
		token, _, err := s.tokens.Issue(c.MarketplaceID)
		if err != nil {
			return nil, fmt.Errorf("failed to issue form token: %w", err)
		}
		page.FormToken = token
	}

	return page, nil
}

// Submit sends the message text to the marketplace pinned in the form token
// and returns the checkout URL. The form nonce is claimed in the ledger
// before the message API is called, so a token is submitted at most once:
// a re-post with the same text reuses the recorded checkout URL and a
// re-post with different text fails with ErrFormUsed.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (string, error) {
	claims, err := s.tokens.Verify(params.Token)
	if err != nil {
		return "", err
	}

	hash := submission.HashText(params.Text)
	v, err, shared := s.inflight.Do(claims.Nonce+"\x00"+hash, func() (any, error) {
		return s.submitOnce(ctx, claims, params.Text, hash)
	})
	if err != nil {
		return "", err
	}
	if shared {
		s.logger.Debug().Str("nonce", claims.Nonce).Msg("joined in-flight submission")
	}
	return v.(string), nil
}

func (s *Service) submitOnce(ctx context.Context, claims *auth.FormClaims, text, hash string) (string, error) {
	now := s.now()
	record := &submission.Submission{
		Nonce:         claims.Nonce,
		MarketplaceID: claims.MarketplaceID,
		TextHash:      hash,
		CreatedAt:     now,
		ExpiresAt:     claims.ExpiresAt,
	}

	claimed, err := s.ledger.Claim(ctx, record)
	if err != nil {
		s.logger.Warn().Err(err).Str("nonce", claims.Nonce).Msg("submission ledger claim failed")
		return s.send(ctx, text, claims.MarketplaceID)
	}

	if !claimed {
		prev, err := s.ledger.Get(ctx, claims.Nonce)
		switch {
		case errors.Is(err, submission.ErrNotFound):
			// claimed and released between the two calls
			return "", ErrSubmissionPending
		case err != nil:
			s.logger.Warn().Err(err).Str("nonce", claims.Nonce).Msg("submission ledger lookup failed")
			return s.send(ctx, text, claims.MarketplaceID)
		case prev.Expired(now):
			return "", auth.ErrTokenExpired
		case prev.TextHash != hash:
			return "", ErrFormUsed
		case prev.Pending():
			return "", ErrSubmissionPending
		}
		s.logger.Info().
			Str("nonce", claims.Nonce).
			Str("marketplace_id", claims.MarketplaceID).
			Msg("form re-posted, reusing checkout url")
		return prev.RedirectURL, nil
	}

	url, err := s.send(ctx, text, claims.MarketplaceID)
	if err != nil {
		if rerr := s.ledger.Release(context.WithoutCancel(ctx), claims.Nonce); rerr != nil {
			s.logger.Warn().Err(rerr).Str("nonce", claims.Nonce).Msg("failed to release submission claim")
		}
		return "", err
	}

	if err := s.ledger.Complete(context.WithoutCancel(ctx), claims.Nonce, url); err != nil {
		s.logger.Warn().Err(err).Str("nonce", claims.Nonce).Msg("failed to record submission")
	}
	return url, nil
}

func (s *Service) send(ctx context.Context, text, marketplaceID string) (string, error) {
	url, err := s.messages.Submit(ctx, text, marketplaceID)
	if err != nil {
		return "", fmt.Errorf("failed to submit message: %w", err)
	}
	return url, nil
}
