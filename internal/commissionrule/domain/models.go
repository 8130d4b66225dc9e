package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Scope is a commission-rule category with its own table and generation
// cutoff, e.g. the general catalog versus a specific product line.
type Scope string

const (
	ScopeGeneral     Scope = "general"
	ScopePremiumLine Scope = "premium_line"
)

// ValueKind selects how a rule value is applied to the purchase base amount.
type ValueKind string

const (
	ValueKindPercentage ValueKind = "percentage"
	ValueKindFixed      ValueKind = "fixed"
)

// MaxGenerations caps the upline walk regardless of configuration.
const MaxGenerations = 7

// CommissionScope stores the per-scope generation cutoff. Generations beyond
// ActiveGenerations are never paid, regardless of rule rows present.
type CommissionScope struct {
	Scope             Scope     `gorm:"primaryKey;type:text" json:"scope"`
	ActiveGenerations int       `gorm:"not null" json:"active_generations"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CommissionScope) TableName() string { return "commission_scopes" }

// CommissionRule maps one (scope, generation) pair to a value. Value is cents
// for fixed rules and whole percents for percentage rules.
type CommissionRule struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Scope      Scope        `gorm:"type:text;not null;uniqueIndex:ux_commission_rules_scope_gen,priority:1" json:"scope"`
	Generation int          `gorm:"not null;uniqueIndex:ux_commission_rules_scope_gen,priority:2" json:"generation"`
	Value      int64        `gorm:"not null" json:"value"`
	ValueKind  ValueKind    `gorm:"type:text;not null" json:"value_kind"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CommissionRule) TableName() string { return "commission_rules" }

// RuleSet is the versioned snapshot of one scope's configuration, loaded once
// per commission run and passed into the engine. Rule lookups on a RuleSet
// fail closed: a generation past the cutoff, or with no row, yields no rule.
type RuleSet struct {
	Scope             Scope
	ActiveGenerations int
	Rules             map[int]CommissionRule
}

// RuleFor returns the rule for a generation, or false when that generation
// must not be paid. A zero-value rule row is treated as absent so the ledger
// never records zero credits.
func (rs RuleSet) RuleFor(generation int) (CommissionRule, bool) {
	if generation < 1 || generation > rs.ActiveGenerations {
		return CommissionRule{}, false
	}
	rule, ok := rs.Rules[generation]
	if !ok || rule.Value <= 0 {
		return CommissionRule{}, false
	}
	return rule, true
}
