package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ruledomain "github.com/redeviva/redeviva/internal/commissionrule/domain"
)

// defaultRules is the out-of-the-box commission plan: the general catalog pays
// three generations deep, the premium line keeps its own shallower table.
var defaultRules = map[ruledomain.Scope]struct {
	ActiveGenerations int
	Values            map[int]int64
}{
	ruledomain.ScopeGeneral: {
		ActiveGenerations: 3,
		Values:            map[int]int64{1: 10, 2: 5, 3: 3},
	},
	ruledomain.ScopePremiumLine: {
		ActiveGenerations: 3,
		Values:            map[int]int64{1: 15, 2: 7, 3: 3},
	},
}

// EnsureDefaultRules seeds the commission scopes and their percentage rules on
// first boot. Existing rows are never touched, so operator edits survive
// restarts.
func EnsureDefaultRules(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for scope, plan := range defaultRules {
			row := ruledomain.CommissionScope{
				Scope:             scope,
				ActiveGenerations: plan.ActiveGenerations,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}

			for generation, value := range plan.Values {
				rule := ruledomain.CommissionRule{
					ID:         node.Generate(),
					Scope:      scope,
					Generation: generation,
					Value:      value,
					ValueKind:  ruledomain.ValueKindPercentage,
				}
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "scope"}, {Name: "generation"}},
					DoNothing: true,
				}).Create(&rule).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
