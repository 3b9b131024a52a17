// Package resumestore persists association results and permutation
// counters to a DuckDB file, so a long permutation run (spec.md 4.6's
// early-stopping loop can still mean thousands of draws per pair) can be
// interrupted and picked back up without redoing completed work.
package resumestore

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/ASBoldt/quantgen/internal/model"
)

// Store wraps a DuckDB connection holding the resume tables.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the DuckDB file at path and ensures the
// resume schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS assoc_results (
			ftr VARCHAR, snp VARCHAR, subgroup INTEGER,
			n INTEGER, betahat DOUBLE, sebetahat DOUBLE, sigmahat DOUBLE,
			betapval DOUBLE, pve DOUBLE,
			PRIMARY KEY (ftr, snp, subgroup)
		);
		CREATE TABLE IF NOT EXISTS perm_counters (
			ftr VARCHAR, subgroup INTEGER,
			nb_perms_so_far INTEGER, perm_pval DOUBLE,
			PRIMARY KEY (ftr, subgroup)
		);
		CREATE TABLE IF NOT EXISTS joint_perm_counters (
			ftr VARCHAR PRIMARY KEY,
			nb_perms_so_far INTEGER, joint_perm_pval DOUBLE, max_l10_true_abf DOUBLE
		);
	`)
	if err != nil {
		return fmt.Errorf("create resume schema: %w", err)
	}
	return nil
}

// SaveAssocResult upserts one subgroup's row of a (feature, SNP) result.
func (s *Store) SaveAssocResult(ftrName string, r *model.ResFtrSnp, subgroup int) error {
	_, err := s.db.Exec(`
		INSERT INTO assoc_results (ftr, snp, subgroup, n, betahat, sebetahat, sigmahat, betapval, pve)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ftr, snp, subgroup) DO UPDATE SET
			n = excluded.n, betahat = excluded.betahat, sebetahat = excluded.sebetahat,
			sigmahat = excluded.sigmahat, betapval = excluded.betapval, pve = excluded.pve
	`, ftrName, r.SnpName, subgroup,
		r.N[subgroup], r.Betahat[subgroup], r.Sebetahat[subgroup],
		r.Sigmahat[subgroup], r.BetaPval[subgroup], r.PVE[subgroup])
	if err != nil {
		return fmt.Errorf("save assoc result %s/%s: %w", ftrName, r.SnpName, err)
	}
	return nil
}

// AssocResultRow is one persisted (feature, SNP, subgroup) summary row.
type AssocResultRow struct {
	Snp                                         string
	N                                           int
	Betahat, Sebetahat, Sigmahat, BetaPval, PVE float64
}

// LoadAssocResults returns every persisted row for a feature's subgroup,
// keyed by SNP name, so a restarted run can skip pairs already computed.
func (s *Store) LoadAssocResults(ftrName string, subgroup int) (map[string]AssocResultRow, error) {
	rows, err := s.db.Query(`
		SELECT snp, n, betahat, sebetahat, sigmahat, betapval, pve
		FROM assoc_results WHERE ftr = ? AND subgroup = ?
	`, ftrName, subgroup)
	if err != nil {
		return nil, fmt.Errorf("load assoc results %s: %w", ftrName, err)
	}
	defer rows.Close()

	out := make(map[string]AssocResultRow)
	for rows.Next() {
		var r AssocResultRow
		if err := rows.Scan(&r.Snp, &r.N, &r.Betahat, &r.Sebetahat, &r.Sigmahat, &r.BetaPval, &r.PVE); err != nil {
			return nil, fmt.Errorf("scan assoc result: %w", err)
		}
		out[r.Snp] = r
	}
	return out, rows.Err()
}

// SavePermCounter persists a separate-analysis permutation counter's
// current state (spec.md 4.6's nbPermsSoFar / permPval pair).
func (s *Store) SavePermCounter(ftrName string, subgroup int, nbPermsSoFar int, permPval float64) error {
	_, err := s.db.Exec(`
		INSERT INTO perm_counters (ftr, subgroup, nb_perms_so_far, perm_pval)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (ftr, subgroup) DO UPDATE SET
			nb_perms_so_far = excluded.nb_perms_so_far, perm_pval = excluded.perm_pval
	`, ftrName, subgroup, nbPermsSoFar, permPval)
	if err != nil {
		return fmt.Errorf("save perm counter %s/%d: %w", ftrName, subgroup, err)
	}
	return nil
}

// LoadPermCounter returns a feature/subgroup's saved counter, or ok=false
// if no resume state has been recorded for it yet.
func (s *Store) LoadPermCounter(ftrName string, subgroup int) (nbPermsSoFar int, permPval float64, ok bool, err error) {
	row := s.db.QueryRow(`
		SELECT nb_perms_so_far, perm_pval FROM perm_counters WHERE ftr = ? AND subgroup = ?
	`, ftrName, subgroup)
	err = row.Scan(&nbPermsSoFar, &permPval)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("load perm counter %s/%d: %w", ftrName, subgroup, err)
	}
	return nbPermsSoFar, permPval, true, nil
}

// SaveJointPermCounter persists a joint-analysis permutation counter.
func (s *Store) SaveJointPermCounter(ftrName string, nbPermsSoFar int, jointPermPval, maxL10TrueAbf float64) error {
	_, err := s.db.Exec(`
		INSERT INTO joint_perm_counters (ftr, nb_perms_so_far, joint_perm_pval, max_l10_true_abf)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (ftr) DO UPDATE SET
			nb_perms_so_far = excluded.nb_perms_so_far,
			joint_perm_pval = excluded.joint_perm_pval,
			max_l10_true_abf = excluded.max_l10_true_abf
	`, ftrName, nbPermsSoFar, jointPermPval, maxL10TrueAbf)
	if err != nil {
		return fmt.Errorf("save joint perm counter %s: %w", ftrName, err)
	}
	return nil
}

// LoadJointPermCounter returns a feature's saved joint counter, or
// ok=false if none has been recorded yet.
func (s *Store) LoadJointPermCounter(ftrName string) (nbPermsSoFar int, jointPermPval, maxL10TrueAbf float64, ok bool, err error) {
	row := s.db.QueryRow(`
		SELECT nb_perms_so_far, joint_perm_pval, max_l10_true_abf FROM joint_perm_counters WHERE ftr = ?
	`, ftrName)
	err = row.Scan(&nbPermsSoFar, &jointPermPval, &maxL10TrueAbf)
	if err == sql.ErrNoRows {
		return 0, 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, 0, false, fmt.Errorf("load joint perm counter %s: %w", ftrName, err)
	}
	return nbPermsSoFar, jointPermPval, maxL10TrueAbf, true, nil
}
