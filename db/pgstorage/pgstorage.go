package pgstorage

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"

	"github.com/xayanetwork/chi-claim-service/claimregistry"
	"github.com/xayanetwork/chi-claim-service/gerror"
	"github.com/xayanetwork/chi-claim-service/log"
)

// uniqueViolationCode is the postgres error code for a unique constraint
// violation, raised when two transactions race on the same claim key.
const uniqueViolationCode = "23505"

// PostgresStorage implements the claim ledger storage
type PostgresStorage struct {
	*pgxpool.Pool
}

// execQuerier determines which functions can be executed by a dbTx or the
// main pgxpool
type execQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (commandTag pgconn.CommandTag, err error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// NewPostgresStorage creates a new claim ledger DB
func NewPostgresStorage(cfg Config) (*PostgresStorage, error) {
	log.Debugf("create PostgresStorage with Config: %v", cfg)
	config, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s:%s/%s?pool_max_conns=%d", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.MaxConns))
	if err != nil {
		return nil, err
	}
	db, err := pgxpool.ConnectConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}
	return &PostgresStorage{db}, nil
}

// getExecQuerier determines which execQuerier to use, dbTx or the main pgxpool
func (p *PostgresStorage) getExecQuerier(dbTx pgx.Tx) execQuerier {
	if dbTx != nil {
		return dbTx
	}
	return p
}

// BeginDBTransaction starts a transaction block.
func (p *PostgresStorage) BeginDBTransaction(ctx context.Context) (pgx.Tx, error) {
	return p.Begin(ctx)
}

// Commit commits a db transaction.
func (p *PostgresStorage) Commit(ctx context.Context, dbTx pgx.Tx) error {
	if dbTx != nil {
		return dbTx.Commit(ctx)
	}
	return gerror.ErrNilDBTransaction
}

// Rollback rollbacks a db transaction.
func (p *PostgresStorage) Rollback(ctx context.Context, dbTx pgx.Tx) error {
	if dbTx != nil {
		return dbTx.Rollback(ctx)
	}
	return gerror.ErrNilDBTransaction
}

// GetClaimant returns the recipient recorded for the claim key.
func (p *PostgresStorage) GetClaimant(ctx context.Context, key common.Hash, dbTx pgx.Tx) (common.Address, error) {
	const getClaimantSQL = "SELECT recipient FROM claim.record WHERE key = $1"

	var recipient []byte
	e := p.getExecQuerier(dbTx)
	err := e.QueryRow(ctx, getClaimantSQL, key.Bytes()).Scan(&recipient)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.Address{}, gerror.ErrStorageNotFound
	} else if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(recipient), nil
}

// GetClaimants returns the recipient for every requested claim key, in input
// order, with the zero address for keys without a record.
func (p *PostgresStorage) GetClaimants(ctx context.Context, keys []common.Hash, dbTx pgx.Tx) ([]common.Address, error) {
	const getClaimantsSQL = "SELECT key, recipient FROM claim.record WHERE key = ANY($1)"

	keysBytes := make([][]byte, len(keys))
	for i, key := range keys {
		keysBytes[i] = key.Bytes()
	}

	e := p.getExecQuerier(dbTx)
	rows, err := e.Query(ctx, getClaimantsSQL, pq.ByteaArray(keysBytes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claimants := make(map[common.Hash]common.Address)
	for rows.Next() {
		var key, recipient []byte
		if err := rows.Scan(&key, &recipient); err != nil {
			return nil, err
		}
		claimants[common.BytesToHash(key)] = common.BytesToAddress(recipient)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]common.Address, len(keys))
	for i, key := range keys {
		result[i] = claimants[key]
	}
	return result, nil
}

// AddClaimRecord writes the settlement record of one output.
func (p *PostgresStorage) AddClaimRecord(ctx context.Context, record *claimregistry.ClaimRecord, dbTx pgx.Tx) error {
	const addClaimRecordSQL = "INSERT INTO claim.record (key, txid, vout, amount, recipient) VALUES ($1, $2, $3, $4, $5)"

	e := p.getExecQuerier(dbTx)
	_, err := e.Exec(ctx, addClaimRecordSQL, record.Key.Bytes(), record.Txid.Bytes(), int64(record.Vout), record.Amount.String(), record.Recipient.Bytes())

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return gerror.ErrAlreadyClaimed
	}
	return err
}

// GetTotalClaimed returns the number of settled claims and the total amount
// paid out so far.
func (p *PostgresStorage) GetTotalClaimed(ctx context.Context, dbTx pgx.Tx) (uint64, *big.Int, error) {
	const getTotalClaimedSQL = "SELECT COUNT(*), COALESCE(SUM(amount::NUMERIC), 0)::VARCHAR FROM claim.record"

	var (
		count uint64
		total string
	)
	e := p.getExecQuerier(dbTx)
	err := e.QueryRow(ctx, getTotalClaimedSQL).Scan(&count, &total)
	if err != nil {
		return 0, nil, err
	}
	totalAmount, ok := new(big.Int).SetString(total, 10) //nolint:gomnd
	if !ok {
		return 0, nil, fmt.Errorf("invalid total claimed amount %q", total)
	}
	return count, totalAmount, nil
}
