// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// migrations holds the schema for each driver, applied in order on open.
var migrations = map[string][]string{
	DriverSQLite: {
		`create table if not exists users(account_number text primary key, pin text not null, balance real not null check (balance >= 0));`,
		`create table if not exists transactions(seq integer primary key autoincrement, transaction_id text not null, account_number text not null, transaction_type text not null, amount real not null, date timestamp not null);`,
		`create index if not exists transactions_account_date on transactions(account_number, date);`,
	},
	DriverMySQL: {
		`create table if not exists users(account_number varchar(32) primary key, pin char(64) not null, balance double not null, check (balance >= 0));`,
		`create table if not exists transactions(seq bigint auto_increment primary key, transaction_id char(36) not null, account_number varchar(32) not null, transaction_type varchar(16) not null, amount double not null, date datetime not null, index transactions_account_date (account_number, date));`,
	},
}

var _ Ledger = (*SQL)(nil)

// SQL is a Ledger stored in a relational database.
type SQL struct {
	db     *sqlx.DB
	logger log.Logger

	// lockRow is appended to the balance read inside deposit/withdraw.
	lockRow string
}

// OpenSQL connects to driver (sqlite3 or mysql) and runs the migrations.
//
// SQLite is limited to one open connection, which serializes every
// read-check-write sequence against the file. MySQL rows are locked
// with SELECT ... FOR UPDATE instead.
func OpenSQL(logger log.Logger, driver, dsn string) (*SQL, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &SQL{logger: logger}

	switch driver {
	case DriverSQLite:
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("problem parsing mysql dsn: %v", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		dsn = cfg.FormatDSN()
		s.lockRow = " for update"
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		err = fmt.Errorf("problem opening %s: %v", driver, err)
		logger.Log(driver, err)
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	s.db = db

	if err := s.migrate(driver); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) migrate(driver string) error {
	rows := migrations[driver]
	for i := range rows {
		res, err := s.db.Exec(rows[i])
		if err != nil {
			return fmt.Errorf("migration #%d [%s...] had problem: %v", i, abbrev(rows[i]), err)
		}
		n, err := res.RowsAffected()
		if err == nil {
			s.logger.Log(driver, fmt.Sprintf("migration #%d [%s...] changed %d rows", i, abbrev(rows[i]), n))
		}
	}
	s.logger.Log(driver, "finished migrations")
	return nil
}

func abbrev(q string) string {
	if len(q) > 40 {
		return q[:40]
	}
	return q
}

// Stats exposes the connection pool for metrics.
func (s *SQL) Stats() sql.DBStats {
	return s.db.Stats()
}

func (s *SQL) Ping() error {
	return s.db.Ping()
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) Authenticate(ctx context.Context, accountNumber, pin string) (*Account, error) {
	var acct Account
	err := s.db.GetContext(ctx, &acct, `select account_number, pin, balance from users where account_number = ?`, accountNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAuthFailure
		}
		return nil, fmt.Errorf("authenticate %s: %v", accountNumber, err)
	}
	if !acct.CheckPIN(pin) {
		return nil, ErrAuthFailure
	}
	return &acct, nil
}

func (s *SQL) Balance(ctx context.Context, accountNumber string) (float64, error) {
	var balance float64
	err := s.db.GetContext(ctx, &balance, `select balance from users where account_number = ?`, accountNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("balance %s: %v", accountNumber, err)
	}
	return balance, nil
}

func (s *SQL) Deposit(ctx context.Context, accountNumber string, amount float64) (float64, error) {
	return s.apply(ctx, accountNumber, Deposit, amount)
}

func (s *SQL) Withdraw(ctx context.Context, accountNumber string, amount float64) (float64, error) {
	return s.apply(ctx, accountNumber, Withdrawal, amount)
}

// apply updates the balance and appends the transaction row in one
// database transaction.
func (s *SQL) apply(ctx context.Context, accountNumber string, kind Kind, amount float64) (float64, error) {
	if !validAmount(amount) {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s %s: begin: %v", kind, accountNumber, err)
	}
	defer tx.Rollback()

	var balance float64
	err = tx.GetContext(ctx, &balance, `select balance from users where account_number = ?`+s.lockRow, accountNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("%s %s: read balance: %v", kind, accountNumber, err)
	}

	newBalance, err := Apply(balance, kind, amount)
	if err != nil {
		return balance, err
	}

	if _, err := tx.ExecContext(ctx, `update users set balance = ? where account_number = ?`, newBalance, accountNumber); err != nil {
		return 0, fmt.Errorf("%s %s: update balance: %v", kind, accountNumber, err)
	}
	_, err = tx.ExecContext(ctx,
		`insert into transactions (transaction_id, account_number, transaction_type, amount, date) values (?, ?, ?, ?, ?)`,
		uuid.New().String(), accountNumber, string(kind), amount, Now())
	if err != nil {
		return 0, fmt.Errorf("%s %s: insert transaction: %v", kind, accountNumber, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s %s: commit: %v", kind, accountNumber, err)
	}
	return newBalance, nil
}

func (s *SQL) Register(ctx context.Context, accountNumber, pin string, initialBalance float64) (*Account, error) {
	acct, err := NewAccount(accountNumber, pin, initialBalance)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("register %s: begin: %v", accountNumber, err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.GetContext(ctx, &n, `select count(*) from users where account_number = ?`, accountNumber); err != nil {
		return nil, fmt.Errorf("register %s: %v", accountNumber, err)
	}
	if n > 0 {
		return nil, ErrDuplicateAccount
	}

	_, err = tx.NamedExecContext(ctx, `insert into users (account_number, pin, balance) values (:account_number, :pin, :balance)`, acct)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("register %s: %v", accountNumber, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("register %s: commit: %v", accountNumber, err)
	}
	return acct, nil
}

func (s *SQL) Transactions(ctx context.Context, accountNumber string) ([]Transaction, error) {
	if _, err := s.Balance(ctx, accountNumber); err != nil {
		return nil, err
	}
	var out []Transaction
	err := s.db.SelectContext(ctx, &out, `select transaction_id, account_number, transaction_type, amount, date
from transactions where account_number = ? order by date desc, seq desc`, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("transactions %s: %v", accountNumber, err)
	}
	for i := range out {
		out[i].Date = out[i].Date.UTC()
	}
	return out, nil
}

// isDuplicateKey catches a primary key collision that slipped past the
// existence check, e.g. a second process writing the same MySQL table.
func isDuplicateKey(err error) bool {
	var lite sqlite3.Error
	if errors.As(err, &lite) {
		return lite.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || lite.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		return my.Number == 1062 // ER_DUP_ENTRY
	}
	return false
}
