package database

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/ledgerline/ledgerline/config"
	"github.com/ledgerline/ledgerline/internal/cache"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		ca, errCache := cache.NewCache()
		if errCache != nil {
			log.Printf("cache unavailable, falling back to direct reads: %v", errCache)
		}
		instance = &Datasource{Conn: con, Cache: ca}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	if err := CreateTables(db); err != nil {
		return nil, err
	}
	return db, nil
}

// CreateTables creates every table the pipeline writes to. Each statement is
// idempotent so repeated startups and the migrate command are safe.
func CreateTables(db *sql.DB) error {
	for _, create := range []func(*sql.DB) error{
		createStatementVersionTable,
		createPDFFileTable,
		createRawLineTable,
		createTransactionTable,
		createLedgerTable,
		createAggregateTable,
		createPivotTable,
		createFinanceKeywordTable,
		createFinanceEntityTable,
		createFalsePositiveTable,
		createThresholdTable,
		createAuditEventTable,
	} {
		if err := create(db); err != nil {
			return err
		}
	}
	return nil
}

// createStatementVersionTable creates a PostgreSQL table for the StatementVersion struct
func createStatementVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS statement_versions (
			id SERIAL PRIMARY KEY,
			version_id TEXT NOT NULL UNIQUE,
			statement_id TEXT NOT NULL,
			lead_id TEXT,
			status TEXT NOT NULL DEFAULT 'PARSING',
			parse_hash TEXT,
			raw_row_count INTEGER NOT NULL DEFAULT 0,
			parsed_row_count INTEGER NOT NULL DEFAULT 0,
			unmapped_txn_lines INTEGER NOT NULL DEFAULT 0,
			continuity_failures INTEGER NOT NULL DEFAULT 0,
			error_reason TEXT,
			workbook_path TEXT,
			workbook_generated_at TIMESTAMP,
			parse_started_at TIMESTAMP,
			parse_completed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

// createPDFFileTable creates a PostgreSQL table for the PDFFile struct
func createPDFFileTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pdf_files (
			id TEXT PRIMARY KEY,
			version_id TEXT NOT NULL REFERENCES statement_versions(version_id),
			storage_path TEXT NOT NULL,
			original_name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

// createRawLineTable creates a PostgreSQL table for the RawLine struct
func createRawLineTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS raw_statement_lines (
			id TEXT PRIMARY KEY,
			version_id TEXT NOT NULL REFERENCES statement_versions(version_id),
			pdf_file_id TEXT NOT NULL,
			page_no INTEGER NOT NULL,
			row_no INTEGER NOT NULL,
			raw_row_text TEXT NOT NULL,
			raw_date_text TEXT,
			raw_narration_text TEXT,
			raw_dr_text TEXT,
			raw_cr_text TEXT,
			raw_balance_text TEXT,
			line_type TEXT NOT NULL,
			extraction_method TEXT,
			UNIQUE (pdf_file_id, page_no, row_no)
		)
	`)
	log.Println(err)
	return err
}

// createTransactionTable creates a PostgreSQL table for the Transaction struct
func createTransactionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			transaction_uid TEXT PRIMARY KEY,
			dedupe_hash TEXT NOT NULL,
			version_id TEXT NOT NULL REFERENCES statement_versions(version_id),
			pdf_file_id TEXT,
			txn_date DATE NOT NULL,
			month_key TEXT NOT NULL,
			narration TEXT NOT NULL,
			dr NUMERIC(20,2) NOT NULL DEFAULT 0,
			cr NUMERIC(20,2) NOT NULL DEFAULT 0,
			balance NUMERIC(20,2),
			amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			counterparty_norm TEXT,
			txn_type TEXT NOT NULL,
			category TEXT,
			finance_tag TEXT,
			tag_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			tag_reason_codes JSONB,
			row_index INTEGER NOT NULL,
			raw_indices JSONB,
			UNIQUE (version_id, dedupe_hash)
		)
	`)
	log.Println(err)
	return err
}

// createLedgerTable creates a PostgreSQL table for the LedgerRow struct
func createLedgerTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS statement_ledger (
			id SERIAL PRIMARY KEY,
			version_id TEXT NOT NULL REFERENCES statement_versions(version_id),
			row_index INTEGER NOT NULL,
			txn_date DATE NOT NULL,
			expected_balance NUMERIC(20,2),
			reported_balance NUMERIC(20,2),
			delta NUMERIC(20,2),
			continuity_ok BOOLEAN NOT NULL DEFAULT TRUE
		)
	`)
	log.Println(err)
	return err
}

// createAggregateTable creates a PostgreSQL table for the MonthlyAggregate struct
func createAggregateTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS aggregates_monthly (
			id SERIAL PRIMARY KEY,
			version_id TEXT NOT NULL REFERENCES statement_versions(version_id),
			month_key TEXT NOT NULL,
			txn_count INTEGER NOT NULL,
			credit_total NUMERIC(20,2) NOT NULL,
			debit_total NUMERIC(20,2) NOT NULL,
			net_flow NUMERIC(20,2) NOT NULL,
			UNIQUE (version_id, month_key)
		)
	`)
	log.Println(err)
	return err
}

// createPivotTable creates a PostgreSQL table for the PivotBucket struct
func createPivotTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pivots (
			id SERIAL PRIMARY KEY,
			version_id TEXT NOT NULL REFERENCES statement_versions(version_id),
			month_key TEXT NOT NULL,
			category TEXT NOT NULL,
			txn_type TEXT NOT NULL,
			sum_dr NUMERIC(20,2) NOT NULL,
			sum_cr NUMERIC(20,2) NOT NULL,
			count_dr INTEGER NOT NULL,
			count_cr INTEGER NOT NULL,
			UNIQUE (version_id, month_key, category, txn_type)
		)
	`)
	log.Println(err)
	return err
}

func createFinanceKeywordTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS finance_keywords (
			id SERIAL PRIMARY KEY,
			keyword TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('PVT', 'BANK')),
			weight DOUBLE PRECISION NOT NULL,
			UNIQUE (keyword, kind)
		)
	`)
	log.Println(err)
	return err
}

func createFinanceEntityTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS finance_entities (
			id SERIAL PRIMARY KEY,
			entity TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('PVT', 'BANK')),
			UNIQUE (entity, kind)
		)
	`)
	log.Println(err)
	return err
}

func createFalsePositiveTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS false_positive_patterns (
			id SERIAL PRIMARY KEY,
			pattern TEXT NOT NULL UNIQUE
		)
	`)
	log.Println(err)
	return err
}

func createThresholdTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS finance_tag_thresholds (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			value NUMERIC(20,5) NOT NULL
		)
	`)
	log.Println(err)
	return err
}

// createAuditEventTable creates a PostgreSQL table for the AuditEvent struct
func createAuditEventTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL,
			payload JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}
