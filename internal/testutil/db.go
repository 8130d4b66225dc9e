package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	affiliatedomain "github.com/redeviva/redeviva/internal/affiliate/domain"
	ruledomain "github.com/redeviva/redeviva/internal/commissionrule/domain"
	consortiumdomain "github.com/redeviva/redeviva/internal/consortium/domain"
	ledgerdomain "github.com/redeviva/redeviva/internal/ledger/domain"
	withdrawaldomain "github.com/redeviva/redeviva/internal/withdrawal/domain"
)

var dbSeq atomic.Int64

// OpenDB opens an isolated in-memory SQLite database with the full schema.
// Row-lock clauses are stripped before execution because SQLite locks the
// whole database instead; single-connection mode keeps the serialization the
// locks would otherwise provide.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	// SQLite support hack: remove FOR UPDATE clauses
	db.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripLockClauses)
	db.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripLockClauses)

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&affiliatedomain.Affiliate{},
		&ledgerdomain.Balance{},
		&ledgerdomain.CommissionEvent{},
		&ruledomain.CommissionScope{},
		&ruledomain.CommissionRule{},
		&consortiumdomain.Group{},
		&consortiumdomain.Participant{},
		&consortiumdomain.Draw{},
		&withdrawaldomain.Withdrawal{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func stripLockClauses(d *gorm.DB) {
	sql := d.Statement.SQL.String()
	if strings.Contains(sql, "FOR UPDATE") {
		newSQL := strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
		newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE", "")
		d.Statement.SQL.Reset()
		d.Statement.SQL.WriteString(newSQL)
	}
}
