// internal/generation/finalizer.go
package generation

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/listing-studio/internal/models"
)

// Finalizer reconciles a finished run with the stored listing and reports it.
type Finalizer struct {
	store    ListingStore
	notifier Notifier
	log      *logrus.Entry
}

func NewFinalizer(store ListingStore, notifier Notifier, log *logrus.Entry) *Finalizer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Finalizer{store: store, notifier: notifier, log: log}
}

// Finalize re-reads the listing so concurrent edits are reflected, then
// notifies. Both steps are best effort; the returned listing may be nil.
func (f *Finalizer) Finalize(ctx context.Context, run *Run, req Request, summary Summary) *models.Listing {
	log := f.log.WithFields(logrus.Fields{"run_id": run.ID, "listing": run.Key.String()})

	listing, err := f.store.GetListing(ctx, run.Key)
	if err != nil {
		log.WithError(err).Warn("Could not reload listing after generation")
		listing = nil
	}

	if f.notifier == nil {
		return listing
	}
	title := req.Product.Name
	if listing != nil && listing.Title != "" {
		title = listing.Title
	}
	err = f.notifier.NotifyGenerationComplete(ctx, Completion{
		RunID:     run.ID,
		CompanyID: req.CompanyID,
		UserID:    req.UserID,
		Email:     req.Email,
		Key:       run.Key,
		Title:     title,
		Message:   summary.Message(),
		Summary:   summary,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to send completion notification")
	}
	return listing
}
