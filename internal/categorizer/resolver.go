package categorizer

import (
	"sort"

	"fjacquet/stmt-import/internal/currencyutils"
	"fjacquet/stmt-import/internal/models"
)

// Resolve joins rows to mappings on the canonical destination and builds
// the normalized transactions. Existing mappings take precedence over
// staged ones when both share a destination. Rows without a match fall back
// to the N/A category.
//
// Income is taken from the row's stream, never from the category. Expense
// rows are flagged as saving or payment when their category is the owner's
// savings or payment category. Income rows still on the N/A category get the
// owner's income category.
func Resolve(rows []models.RawRow, existing, staged []models.PayeeMapping, cats models.OwnerCategories) []models.NormalizedTransaction {
	byDestination := destinationIndex(existing, staged)

	out := make([]models.NormalizedTransaction, len(rows))
	for i, r := range rows {
		tx := models.NormalizedTransaction{
			Date:                r.Date,
			DestinationOriginal: r.DestinationOriginal,
			Destination:         r.Destination,
			Alias:               r.Alias,
			Amount:              currencyutils.RoundAmount(r.Amount),
			AccountID:           r.AccountID,
			CategoryID:          cats.NA,
			SubCategoryID:       cats.NASubCategory,
			IsIncome:            r.IsIncome,
			IsExpense:           !r.IsIncome,
			Source:              models.SourceImport,
		}

		if m, ok := byDestination[r.Destination]; ok {
			tx.CategoryID = m.CategoryID
			tx.SubCategoryID = m.SubCategoryID
			if tx.Alias == "" {
				tx.Alias = m.Alias
			}
		}

		if tx.IsIncome {
			if tx.CategoryID == cats.NA {
				tx.CategoryID = cats.Income
			}
		} else {
			tx.IsSaving = tx.CategoryID == cats.Savings
			tx.IsPayment = tx.CategoryID == cats.Payment
		}

		out[i] = tx
	}
	return out
}

func destinationIndex(existing, staged []models.PayeeMapping) map[string]models.PayeeMapping {
	ordered := make([]models.PayeeMapping, len(existing))
	copy(ordered, existing)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ID != ordered[j].ID {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].DestinationOriginal < ordered[j].DestinationOriginal
	})

	index := make(map[string]models.PayeeMapping, len(existing)+len(staged))
	for _, list := range [][]models.PayeeMapping{ordered, staged} {
		for _, m := range list {
			dest := canonicalDestination(m)
			if _, ok := index[dest]; !ok {
				index[dest] = m
			}
		}
	}
	return index
}
