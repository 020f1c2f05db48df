package categorizer

import "fjacquet/stmt-import/internal/models"

// StagePayees returns a new mapping for every destination_original in rows
// that is not already in existing. Each new payee is staged once, from its
// first row, with the owner's N/A category and subcategory, a category type
// taken from the row's stream, and no keywords or alias.
func StagePayees(rows []models.RawRow, existing []models.PayeeMapping, cats models.OwnerCategories) []models.PayeeMapping {
	known := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		known[m.DestinationOriginal] = struct{}{}
	}

	var staged []models.PayeeMapping
	for _, r := range rows {
		if _, ok := known[r.DestinationOriginal]; ok {
			continue
		}
		known[r.DestinationOriginal] = struct{}{}
		staged = append(staged, models.PayeeMapping{
			OwnerID:             cats.OwnerID,
			DestinationOriginal: r.DestinationOriginal,
			Destination:         r.Destination,
			CategoryID:          cats.NA,
			SubCategoryID:       cats.NASubCategory,
			CategoryType:        models.CategoryTypeFor(r.IsIncome),
		})
	}
	return staged
}
