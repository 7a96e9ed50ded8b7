package catalog_repo

import (
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/infrastructure/storage/postgres"
)

const branchesTable = "cat_branches"

// BranchRepo implements branch.Repository.
type BranchRepo struct {
	*BaseCatalogRepo[*branch.Branch]
}

func NewBranchRepo(txm *postgres.TxManager) *BranchRepo {
	return &BranchRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			branchesTable,
			postgres.ExtractDBColumns[branch.Branch](),
			func() *branch.Branch { return &branch.Branch{} },
		),
	}
}

// Ensure interface compliance.
var _ branch.Repository = (*BranchRepo)(nil)
