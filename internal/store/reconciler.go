package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Reconciler brings on-disk state in line with a single current version by
// deleting every other generation.
type Reconciler struct {
	store Store
}

func NewReconciler(s Store) *Reconciler {
	return &Reconciler{store: s}
}

// Reconcile deletes all generations except current. A failed delete is
// logged and skipped; the version will be retried on the next activation.
// Only enumeration failure is returned as an error.
func (r *Reconciler) Reconcile(current string) error {
	versions, err := r.store.Versions()
	if err != nil {
		return fmt.Errorf("reconciling cache versions: %w", err)
	}
	for _, v := range versions {
		if v == current {
			continue
		}
		if err := r.store.Delete(v); err != nil {
			logrus.Errorf("Failed to delete superseded cache version %s: %v", v, err)
			continue
		}
		logrus.Infof("Deleted superseded cache version %s", v)
	}
	return nil
}
