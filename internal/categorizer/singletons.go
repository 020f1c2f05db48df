package categorizer

import (
	"fmt"

	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/parsererror"
)

// ResolveSingletons finds the owner's reserved categories. Every singleton
// role must be held by exactly one of the owner's categories, and exactly
// one subcategory must carry the N/A role; anything else is a
// *parsererror.ConfigurationError.
func ResolveSingletons(ownerID int64, categories []models.Category, subCategories []models.SubCategory) (models.OwnerCategories, error) {
	byRole := make(map[models.CategoryRole][]int64)
	for _, c := range categories {
		if c.OwnerID != ownerID || c.Role == models.RoleNone {
			continue
		}
		byRole[c.Role] = append(byRole[c.Role], c.ID)
	}

	ids := make(map[models.CategoryRole]int64, len(models.SingletonRoles()))
	for _, role := range models.SingletonRoles() {
		id, err := single(ownerID, string(role), "category", byRole[role])
		if err != nil {
			return models.OwnerCategories{}, err
		}
		ids[role] = id
	}

	var naSubs []int64
	for _, s := range subCategories {
		if s.OwnerID == ownerID && s.Role == models.RoleNA {
			naSubs = append(naSubs, s.ID)
		}
	}
	naSub, err := single(ownerID, "na_subcategory", "subcategory", naSubs)
	if err != nil {
		return models.OwnerCategories{}, err
	}

	return models.OwnerCategories{
		OwnerID:       ownerID,
		NA:            ids[models.RoleNA],
		NASubCategory: naSub,
		Income:        ids[models.RoleIncome],
		Savings:       ids[models.RoleSavings],
		Payment:       ids[models.RolePayment],
	}, nil
}

func single(ownerID int64, role, kind string, ids []int64) (int64, error) {
	switch len(ids) {
	case 1:
		return ids[0], nil
	case 0:
		return 0, &parsererror.ConfigurationError{
			OwnerID: ownerID,
			Role:    role,
			Msg:     fmt.Sprintf("no %s has this role", kind),
		}
	default:
		return 0, &parsererror.ConfigurationError{
			OwnerID: ownerID,
			Role:    role,
			Msg:     fmt.Sprintf("%d %s entries share this role: %v", len(ids), kind, ids),
		}
	}
}
