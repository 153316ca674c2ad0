// Package store maps entity batches onto a property-graph datastore
// through a narrow driver interface.
package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Record is one flat result row: query output names to values.
type Record map[string]any

// Driver is the narrow surface the graph store must provide. Everything
// above it (schema, loading, queries) is store-product agnostic.
type Driver interface {
	Connect(ctx context.Context, uri, user, password string) error
	RunStatement(ctx context.Context, text string) error
	RunQuery(ctx context.Context, text string, params map[string]any) ([]Record, error)
	Close(ctx context.Context) error
}

// SetupError marks fatal store failures: bad credentials or an
// unreachable endpoint. It aborts the whole run.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("store setup: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Neo4jDriver implements Driver over the Bolt protocol.
type Neo4jDriver struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jDriver returns an unconnected driver; call Connect before use.
func NewNeo4jDriver() *Neo4jDriver {
	return &Neo4jDriver{}
}

// Connect establishes and verifies the Bolt connection. Failures are
// SetupErrors: unreachable stores abort ingestion and queries alike.
func (d *Neo4jDriver) Connect(ctx context.Context, uri, user, password string) error {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return &SetupError{Err: err}
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return &SetupError{Err: err}
	}
	d.driver = driver
	return nil
}

// RunStatement executes a schema/DDL statement and discards any rows.
func (d *Neo4jDriver) RunStatement(ctx context.Context, text string) error {
	_, err := d.RunQuery(ctx, text, nil)
	return err
}

// RunQuery executes a query and collects every row as a flat Record.
func (d *Neo4jDriver) RunQuery(ctx context.Context, text string, params map[string]any) ([]Record, error) {
	if d.driver == nil {
		return nil, &SetupError{Err: fmt.Errorf("not connected")}
	}

	session := d.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx, text, params)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	var records []Record
	for result.Next(ctx) {
		records = append(records, Record(result.Record().AsMap()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("consume result: %w", err)
	}
	return records, nil
}

// Close releases the connection. Safe to call when never connected.
func (d *Neo4jDriver) Close(ctx context.Context) error {
	if d.driver == nil {
		return nil
	}
	err := d.driver.Close(ctx)
	d.driver = nil
	return err
}
