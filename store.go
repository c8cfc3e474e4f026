package clusterlens

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

// ErrResultNotFound is returned when a clustering result id is unknown.
var ErrResultNotFound = errors.New("clustering result not found")

// ResultStore persists clustering results in sqlite. Results are
// append-only: saved once, read many times, never updated.
type ResultStore struct {
	db *sql.DB
}

// OpenResultStore opens (and if needed creates) the result database.
func OpenResultStore(path string) (*ResultStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS clustering_results (
		id TEXT PRIMARY KEY,
		dataset_id TEXT NOT NULL,
		dataset_name TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		parameters_json TEXT,
		labels_json TEXT NOT NULL,
		metrics_json TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_dataset ON clustering_results(dataset_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &ResultStore{db: db}, nil
}

// Close closes the underlying database.
func (s *ResultStore) Close() error { return s.db.Close() }

// SaveResult persists a result. The result must be complete; a failed save
// leaves no partial record behind.
func (s *ResultStore) SaveResult(r *ClusteringResult) error {
	paramsJSON, err := json.Marshal(r.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}
	labelsJSON, err := json.Marshal(r.Labels)
	if err != nil {
		return fmt.Errorf("failed to marshal labels: %w", err)
	}
	metricsJSON, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO clustering_results
		(id, dataset_id, dataset_name, algorithm, parameters_json, labels_json, metrics_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DatasetID, r.DatasetName, r.Algorithm,
		string(paramsJSON), string(labelsJSON), string(metricsJSON), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// GetResult looks up a result by id.
func (s *ResultStore) GetResult(id string) (*ClusteringResult, error) {
	row := s.db.QueryRow(`
		SELECT id, dataset_id, dataset_name, algorithm, parameters_json, labels_json, metrics_json, created_at
		FROM clustering_results WHERE id = ?`, id)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, id)
	}
	return result, err
}

// ResultsForDataset returns every result for a dataset, newest first.
func (s *ResultStore) ResultsForDataset(datasetID string) ([]*ClusteringResult, error) {
	rows, err := s.db.Query(`
		SELECT id, dataset_id, dataset_name, algorithm, parameters_json, labels_json, metrics_json, created_at
		FROM clustering_results WHERE dataset_id = ? ORDER BY created_at DESC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var results []*ClusteringResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*ClusteringResult, error) {
	var r ClusteringResult
	var paramsJSON, labelsJSON, metricsJSON string
	var createdAt time.Time
	err := row.Scan(&r.ID, &r.DatasetID, &r.DatasetName, &r.Algorithm,
		&paramsJSON, &labelsJSON, &metricsJSON, &createdAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = createdAt

	if err := json.Unmarshal([]byte(paramsJSON), &r.Parameters); err != nil {
		return nil, fmt.Errorf("failed to parse parameters for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(labelsJSON), &r.Labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &r.Metrics); err != nil {
		return nil, fmt.Errorf("failed to parse metrics for %s: %w", r.ID, err)
	}
	return &r, nil
}

// databasePath resolves the sqlite path from configuration.
func databasePath() string {
	if Config.DatabasePath != "" {
		return Config.DatabasePath
	}
	return "clusterlens.db"
}

// ResultsCmd lists stored clustering results for a dataset.
var ResultsCmd = &cobra.Command{
	Use:   "results [dataset-id]",
	Short: "List stored clustering results for a dataset, newest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := OpenResultStore(databasePath())
		if err != nil {
			log.Printf("Failed to open result store: %v", err)
			return
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("Failed to close result store: %v", err)
			}
		}()

		results, err := store.ResultsForDataset(args[0])
		if err != nil {
			log.Printf("Failed to list results: %v", err)
			return
		}
		if len(results) == 0 {
			log.Printf("No results for dataset %s", args[0])
			return
		}
		for _, r := range results {
			clusters := "n/a"
			if v, ok := r.Metrics["n_clusters"]; ok {
				clusters = fmt.Sprintf("%d", int(v))
			}
			log.Printf("%s  %s  %s  clusters=%s  %s",
				r.ID, r.Algorithm, r.CreatedAt.Format(time.RFC3339), clusters, r.DatasetName)
		}
	},
}
