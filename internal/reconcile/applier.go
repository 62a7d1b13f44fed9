package reconcile

import (
	"context"
	"log/slog"

	"rostersync/internal/catalog"
	"rostersync/internal/directory"
	"rostersync/internal/logging"
	"rostersync/internal/roster"
)

// Result summarizes one application.
type Result struct {
	Skipped   bool
	Added     []string
	Removed   []string
	Dropped   []string // tags excluded by the capability check
	Anomalies []Anomaly
}

// Applier pushes a record's desired state onto its directory entity.
type Applier struct {
	client directory.Client
	cat    *catalog.Catalog
	cache  *AppliedCache
	logger *slog.Logger
}

// NewApplier builds an Applier.
func NewApplier(client directory.Client, cat *catalog.Catalog, cache *AppliedCache, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Applier{
		client: client,
		cat:    cat,
		cache:  cache,
		logger: logger.With(logging.String(logging.FieldComponent, "applier")),
	}
}

// Apply reconciles one record against its entity: compute desired state,
// short-circuit on an unchanged signature, otherwise observe fresh, diff,
// filter by mutation capability, and submit removals before additions. The
// two mutation steps are best-effort and independent. Full or partial success
// updates the last-applied cache; total failure clears it and returns the
// error. A capability lookup failure that leaves nothing to attempt counts as
// total failure too, so the cached signature never masks work that was never
// done. No retry here, the next event for the entity is the retry.
func (a *Applier) Apply(ctx context.Context, rec roster.Record) (Result, error) {
	log := logging.WithContext(ctx, a.logger)

	if !rec.Resolved() {
		log.Debug("record has no linked entity; nothing to apply",
			logging.Int64(logging.FieldRecordID, rec.ID))
		return Result{Skipped: true}, nil
	}

	desired, anomalies := Desired(rec, a.cat)
	for _, anomaly := range anomalies {
		log.Warn("unresolvable category value; tag omitted",
			logging.Int64(logging.FieldRecordID, rec.ID),
			logging.String("category", anomaly.Category),
			logging.String("value", anomaly.Raw))
	}

	signature := Signature(desired)
	if cached, ok := a.cache.Get(rec.EntityID); ok && cached == signature {
		log.Debug("desired state unchanged; skipping",
			logging.String(logging.FieldEntityID, rec.EntityID))
		return Result{Skipped: true, Anomalies: anomalies}, nil
	}

	entity, err := a.client.Entity(ctx, rec.EntityID)
	if err != nil {
		a.cache.Clear(rec.EntityID)
		return Result{Anomalies: anomalies}, err
	}

	observedManaged := catalog.NewTagSet(a.cat.Intersect(entity.TagIDs)...)
	toAdd, toRemove := Diff(desired, observedManaged)

	result := Result{Anomalies: anomalies}
	if len(toAdd) == 0 && len(toRemove) == 0 {
		a.cache.Set(rec.EntityID, signature)
		return result, nil
	}

	toAdd, toRemove, capErr := a.filterByCapability(ctx, log, toAdd, toRemove, &result)
	if capErr != nil && len(toAdd) == 0 && len(toRemove) == 0 {
		a.cache.Clear(rec.EntityID)
		return result, capErr
	}

	var removeErr, addErr error
	if len(toRemove) > 0 {
		if removeErr = a.client.RemoveTags(ctx, rec.EntityID, toRemove); removeErr != nil {
			log.Error("remove tags failed",
				logging.String(logging.FieldEntityID, rec.EntityID),
				logging.Error(removeErr))
		} else {
			result.Removed = toRemove
		}
	}
	if len(toAdd) > 0 {
		if addErr = a.client.AddTags(ctx, rec.EntityID, toAdd); addErr != nil {
			log.Error("add tags failed",
				logging.String(logging.FieldEntityID, rec.EntityID),
				logging.Error(addErr))
		} else {
			result.Added = toAdd
		}
	}

	attempted := 0
	failed := 0
	if len(toRemove) > 0 {
		attempted++
		if removeErr != nil {
			failed++
		}
	}
	if len(toAdd) > 0 {
		attempted++
		if addErr != nil {
			failed++
		}
	}

	if attempted > 0 && failed == attempted {
		a.cache.Clear(rec.EntityID)
		err := removeErr
		if err == nil {
			err = addErr
		}
		return result, err
	}

	a.cache.Set(rec.EntityID, signature)
	if len(result.Added) > 0 || len(result.Removed) > 0 {
		log.Info("applied changes",
			logging.String(logging.FieldEntityID, rec.EntityID),
			logging.Int("added", len(result.Added)),
			logging.Int("removed", len(result.Removed)))
	}
	return result, nil
}

// filterByCapability drops tags the actor may not mutate. A failed rank
// lookup fails the whole filter since nothing could be evaluated; a failed
// metadata lookup drops that tag and is reported back so the caller can fail
// the run when no tag survived.
func (a *Applier) filterByCapability(ctx context.Context, log *slog.Logger, toAdd, toRemove []string, result *Result) ([]string, []string, error) {
	rank, err := a.client.ActorRank(ctx)
	if err != nil {
		log.Warn("actor rank unavailable", logging.Error(err))
		return nil, nil, err
	}

	var lookupErr error
	keep := func(tags []string) []string {
		var out []string
		for _, id := range tags {
			tag, err := a.client.Tag(ctx, id)
			if err != nil {
				log.Warn("tag metadata unavailable; dropping from operation",
					logging.String(logging.FieldTag, id), logging.Error(err))
				if lookupErr == nil {
					lookupErr = err
				}
				result.Dropped = append(result.Dropped, id)
				continue
			}
			if !directory.CanMutate(tag, rank) {
				log.Warn("tag not mutable by actor; dropping from operation",
					logging.String(logging.FieldTag, id),
					logging.Int("tag_rank", tag.Rank),
					logging.Int("actor_rank", rank),
					logging.Bool("externally_managed", tag.Managed))
				result.Dropped = append(result.Dropped, id)
				continue
			}
			out = append(out, id)
		}
		return out
	}

	filteredAdd := keep(toAdd)
	filteredRemove := keep(toRemove)
	return filteredAdd, filteredRemove, lookupErr
}
