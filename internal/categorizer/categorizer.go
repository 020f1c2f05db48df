package categorizer

import (
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
)

// Result is the outcome of categorizing one owner's batch.
type Result struct {
	Transactions []models.NormalizedTransaction
	NewPayees    []models.PayeeMapping
}

// Categorizer runs rewrite, payee staging and category resolution in order
// over one owner's date-sorted rows. The mapping table passed in is read
// only; new payees are returned, not written.
type Categorizer struct {
	logger logging.Logger
}

// NewCategorizer creates a Categorizer.
func NewCategorizer(logger logging.Logger) *Categorizer {
	return &Categorizer{logger: logging.OrDefault(logger)}
}

// Categorize processes rows against the owner's mapping table.
func (c *Categorizer) Categorize(rows []models.RawRow, mappings []models.PayeeMapping, cats models.OwnerCategories) Result {
	log := c.logger.WithField(logging.FieldOwnerID, cats.OwnerID)

	index := BuildRewriteIndex(mappings)
	rewritten := ApplyRewrites(rows, index)

	changed := 0
	for i := range rows {
		if rewritten[i].Destination != rows[i].Destination {
			changed++
			log.Debug("Rewrote destination",
				logging.Field{Key: "from", Value: rows[i].Destination},
				logging.Field{Key: logging.FieldDestination, Value: rewritten[i].Destination})
		}
	}
	log.Debug("Applied rewrite rules",
		logging.Field{Key: "keywords", Value: index.Len()},
		logging.Field{Key: "rewritten", Value: changed})

	staged := StagePayees(rewritten, mappings, cats)
	for _, m := range staged {
		log.Info("Staged new payee",
			logging.Field{Key: logging.FieldDestination, Value: m.DestinationOriginal},
			logging.Field{Key: "category_type", Value: string(m.CategoryType)})
	}

	txs := Resolve(rewritten, mappings, staged, cats)
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			log.WithError(err).Warn("Transaction flags are inconsistent",
				logging.Field{Key: logging.FieldDestination, Value: tx.Destination},
				logging.Field{Key: "category_id", Value: tx.CategoryID})
		}
	}
	log.Debug("Resolved categories", logging.Field{Key: logging.FieldCount, Value: len(txs)})

	return Result{Transactions: txs, NewPayees: staged}
}
