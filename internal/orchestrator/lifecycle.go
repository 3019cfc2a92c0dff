package orchestrator

import (
	"context"
	"errors"
	"time"

	"marquee/internal/logging"
	"marquee/internal/request"
	"marquee/internal/services"
)

// Approve marks a pending request approved and dispatches it. The approver's
// profile scopes the target set; admins carry no profile, so every
// configured target of the request's class is used. Approving an
// already-approved request is a no-op.
func (o *Orchestrator) Approve(ctx context.Context, contentID, approverID string) (*request.Request, error) {
	unlock := o.locks.lock(contentID)
	defer unlock()

	req, err := o.store.FindActive(ctx, contentID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "orchestrator", "approve", "load request", err)
	}
	if req == nil {
		return nil, services.Wrap(services.ErrNotFound, "orchestrator", "approve", "no active request with id "+contentID, nil)
	}
	if req.Approved {
		return req, nil
	}

	identity, profile, err := o.resolveIdentity(ctx, approverID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "orchestrator", "approve", "resolve approver", err)
	}
	if !identity.Known() {
		return nil, services.Wrap(services.ErrUnknownIdentity, "orchestrator", "approve", "approver "+approverID, nil)
	}

	if err := o.store.Approve(ctx, contentID); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "orchestrator", "approve", "persist approval", err)
	}
	req.Approved = true

	logger := o.logger.With(
		logging.String("content_id", contentID),
		logging.String("approver_id", approverID),
	)
	o.dispatch(ctx, req, profile, logger)
	logger.Info("request approved")
	return req, nil
}

// Retract reverses dispatch for an active request and archives it as
// removed. Every recorded acquisition ref is removed independently; a
// failing target is logged and skipped so one broken server never blocks
// the archive transition.
func (o *Orchestrator) Retract(ctx context.Context, contentID, reason string) (*request.Archived, error) {
	unlock := o.locks.lock(contentID)
	defer unlock()

	req, err := o.store.FindActive(ctx, contentID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "orchestrator", "retract", "load request", err)
	}
	if req == nil {
		return nil, services.Wrap(services.ErrNotFound, "orchestrator", "retract", "no active request with id "+contentID, nil)
	}

	logger := o.logger.With(logging.String("content_id", contentID))
	for targetID, acquisitionID := range req.AcquisitionRefs {
		target, ok := o.targets.Lookup(targetID)
		if !ok {
			logger.Warn("acquisition ref for unknown target", logging.String("target_id", targetID))
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, o.removeTimeout)
		err := target.Remove(callCtx, acquisitionID)
		cancel()
		if err != nil {
			logger.Warn("acquisition remove failed",
				logging.String("target_id", targetID),
				logging.String("acquisition_id", acquisitionID),
				logging.Error(err))
			continue
		}
		logger.Info("removed from acquisition target",
			logging.String("target_id", targetID),
			logging.String("acquisition_id", acquisitionID))
	}

	archived, err := o.store.Archive(ctx, contentID, false, true, reason)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "orchestrator", "retract", "archive request", err)
	}
	logger.Info("request retracted", logging.String("reason", reason))
	return archived, nil
}

// Complete archives an active request as fulfilled. Acquisition refs are
// left in place downstream.
func (o *Orchestrator) Complete(ctx context.Context, contentID string) (*request.Archived, error) {
	unlock := o.locks.lock(contentID)
	defer unlock()

	archived, err := o.store.Archive(ctx, contentID, true, false, "")
	if err != nil {
		marker := services.ErrPersistence
		if errors.Is(err, request.ErrNotFound) {
			marker = services.ErrNotFound
		}
		return nil, services.Wrap(marker, "orchestrator", "complete", "archive request", err)
	}
	o.logger.Info("request completed",
		logging.String("content_id", contentID),
		logging.Duration("active_for", time.Since(archived.CreatedAt)))
	return archived, nil
}
