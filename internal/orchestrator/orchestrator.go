package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/notifications"
	"marquee/internal/request"
)

// User-visible outcome messages. Exactly three shapes ever reach the caller.
const (
	msgAdded       = "request added"
	msgUpdated     = "request updated"
	msgFailed      = "failed"
	msgQuotaDenied = "You are over your quota. Quotas reset each week."
)

// quotaGapMarker tags log lines for the accepted inconsistency where a quota
// increment survives a later persistence failure.
const quotaGapMarker = "quota_consumed_without_request"

// Notifier is the outbound notification surface the orchestrator needs.
// Delivery is detached; the orchestrator never waits on it.
type Notifier interface {
	RequestReceived(req *request.Request, to []notifications.Recipient)
}

// Orchestrator owns the request lifecycle: intake, quota enforcement,
// approval resolution, dispatch fan-out, retraction, and archival.
type Orchestrator struct {
	store         *request.Store
	targets       *Registry
	notifier      Notifier
	logger        *slog.Logger
	submitTimeout time.Duration
	removeTimeout time.Duration
	locks         *keyedMutex
}

// New wires an orchestrator from its collaborators. Timeouts come from the
// workflow config section.
func New(store *request.Store, targets *Registry, notifier Notifier, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:         store,
		targets:       targets,
		notifier:      notifier,
		logger:        logging.WithComponent(logger, "orchestrator"),
		submitTimeout: time.Duration(cfg.Workflow.SubmitTimeout) * time.Second,
		removeTimeout: time.Duration(cfg.Workflow.RemoveTimeout) * time.Second,
		locks:         newKeyedMutex(),
	}
}

// Submission is one incoming user action.
type Submission struct {
	ContentID string
	Class     request.ContentClass
	Title     string
	Thumb     string
	IMDBID    string
	TMDBID    string
	TVDBID    string
	UserID    string
}

type quotaDecision int

const (
	quotaDenied quotaDecision = iota
	quotaAllowed
	quotaAllowedUnlimited
)

// Submit runs the full intake path for one user action and returns the
// outcome reported upstream. Concurrent calls for different content ids run
// in parallel; calls for the same content id are serialized.
func (o *Orchestrator) Submit(ctx context.Context, sub Submission) request.Outcome {
	logger := o.logger.With(
		logging.String("trace_id", uuid.NewString()),
		logging.String("content_id", sub.ContentID),
		logging.String("user_id", sub.UserID),
	)

	if strings.TrimSpace(sub.ContentID) == "" || strings.TrimSpace(sub.UserID) == "" {
		logger.Error("submission missing content or user id")
		return o.failure(sub)
	}
	if sub.Class != request.ClassMovie && sub.Class != request.ClassSeries {
		logger.Error("submission has unknown content class", logging.String("class", string(sub.Class)))
		return o.failure(sub)
	}

	identity, profile, err := o.resolveIdentity(ctx, sub.UserID)
	if err != nil {
		logger.Error("identity lookup failed", logging.Error(err))
		return o.failure(sub)
	}
	decision := decideQuota(identity, profile)
	if decision == quotaDenied {
		logger.Info("request denied by quota guard", logging.Bool("known_identity", identity.Known()))
		return request.Outcome{Message: msgQuotaDenied, Error: true, UserID: sub.UserID}
	}

	unlock := o.locks.lock(sub.ContentID)
	defer unlock()

	req, created, err := o.admit(ctx, sub, profile)
	if err != nil {
		logger.Error("request persistence failed", logging.Error(err))
		return o.failure(sub)
	}

	var quota *int
	if decision == quotaAllowed {
		count, err := o.store.IncrementQuota(ctx, identity.User.ID)
		if err != nil {
			logger.Error("quota increment failed after request persisted", logging.Error(err))
			return o.failure(sub)
		}
		quota = &count
	}

	autoApprove := profile != nil && profile.AutoApprove
	approvedNow := created && req.Approved
	if !created && !req.Approved && autoApprove {
		if err := o.store.Approve(ctx, sub.ContentID); err != nil {
			if quota != nil {
				logger.Warn("approval write failed after quota increment",
					logging.String("marker", quotaGapMarker),
					logging.Error(err))
			} else {
				logger.Error("approval write failed", logging.Error(err))
			}
			return o.failure(sub)
		}
		req.Approved = true
		approvedNow = true
	}

	if approvedNow {
		o.dispatch(ctx, req, profile, logger)
	}

	o.notify(identity, req)

	message := msgUpdated
	if created {
		message = msgAdded
	}
	logger.Info("request admitted",
		logging.String("outcome", message),
		logging.Bool("approved", req.Approved))
	return request.Outcome{Message: message, UserID: sub.UserID, Request: req, Quota: quota}
}

// resolveIdentity looks up the user record first, then the admin record, and
// loads the user's profile when one is referenced.
func (o *Orchestrator) resolveIdentity(ctx context.Context, userID string) (request.Identity, *request.Profile, error) {
	user, err := o.store.FindUser(ctx, userID)
	if err != nil {
		return request.Identity{}, nil, err
	}
	if user != nil {
		var profile *request.Profile
		if user.ProfileID != "" {
			profile, err = o.store.FindProfile(ctx, user.ProfileID)
			if err != nil {
				return request.Identity{}, nil, err
			}
		}
		return request.Identity{User: user}, profile, nil
	}
	admin, err := o.store.FindAdmin(ctx, userID)
	if err != nil {
		return request.Identity{}, nil, err
	}
	if admin != nil {
		return request.Identity{Admin: admin}, nil, nil
	}
	return request.Identity{}, nil, nil
}

// decideQuota classifies the identity. Unknown identities deny so an
// unresolved id never consumes quota. A cap of zero means unlimited but the
// count still advances for non-admin users.
func decideQuota(identity request.Identity, profile *request.Profile) quotaDecision {
	switch {
	case identity.Admin != nil:
		return quotaAllowedUnlimited
	case identity.User == nil:
		return quotaDenied
	}
	quotaCap := 0
	if profile != nil {
		quotaCap = profile.QuotaCap
	}
	if quotaCap > 0 && identity.User.QuotaCount >= quotaCap {
		return quotaDenied
	}
	return quotaAllowed
}

// admit creates the request on first sight or merges the requester into the
// existing record. A create losing the race to a concurrent creator falls
// back to the merge path.
func (o *Orchestrator) admit(ctx context.Context, sub Submission, profile *request.Profile) (*request.Request, bool, error) {
	existing, err := o.store.FindActive(ctx, sub.ContentID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		req := &request.Request{
			ContentID:  sub.ContentID,
			Class:      sub.Class,
			Title:      sub.Title,
			Thumb:      sub.Thumb,
			IMDBID:     sub.IMDBID,
			TMDBID:     sub.TMDBID,
			TVDBID:     sub.TVDBID,
			Requesters: []string{sub.UserID},
			Approved:   profile != nil && profile.AutoApprove,
		}
		err := o.store.Create(ctx, req)
		if err == nil {
			return req, true, nil
		}
		if !errors.Is(err, request.ErrDuplicate) {
			return nil, false, err
		}
		existing, err = o.store.FindActive(ctx, sub.ContentID)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, request.ErrNotFound
		}
	}
	if err := o.store.AddRequester(ctx, sub.ContentID, sub.UserID); err != nil {
		return nil, false, err
	}
	if !existing.HasRequester(sub.UserID) {
		existing.Requesters = append(existing.Requesters, sub.UserID)
	}
	return existing, false, nil
}

// dispatch fans the request out to every resolved target. Targets run in
// parallel; a failing target is logged and skipped, never failing the
// submission. An empty target set is a no-op.
func (o *Orchestrator) dispatch(ctx context.Context, req *request.Request, profile *request.Profile, logger *slog.Logger) {
	targets := o.targets.Resolve(req.Class, profile)
	if len(targets) == 0 {
		logger.Debug("no acquisition targets for request", logging.String("class", string(req.Class)))
		return
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, target := range targets {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, o.submitTimeout)
			defer cancel()
			acquisitionID, err := target.Submit(callCtx, req)
			if err != nil {
				logger.Warn("acquisition submit failed",
					logging.String("target_id", target.ID()),
					logging.Error(err))
				return nil
			}
			if err := o.store.SetAcquisitionRef(ctx, req.ContentID, target.ID(), acquisitionID); err != nil {
				logger.Warn("acquisition ref write failed",
					logging.String("marker", quotaGapMarker),
					logging.String("target_id", target.ID()),
					logging.Error(err))
				return nil
			}
			mu.Lock()
			if req.AcquisitionRefs == nil {
				req.AcquisitionRefs = make(map[string]string)
			}
			req.AcquisitionRefs[target.ID()] = acquisitionID
			mu.Unlock()
			logger.Info("dispatched to acquisition target",
				logging.String("target_id", target.ID()),
				logging.String("acquisition_id", acquisitionID))
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) notify(identity request.Identity, req *request.Request) {
	if o.notifier == nil {
		return
	}
	email := identity.Email()
	if email == "" {
		return
	}
	o.notifier.RequestReceived(req, []notifications.Recipient{{
		Name:  identity.DisplayName(),
		Email: email,
	}})
}

func (o *Orchestrator) failure(sub Submission) request.Outcome {
	return request.Outcome{Message: msgFailed, Error: true, UserID: sub.UserID}
}
