package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/controlvector/cv-git/internal/cverrors"
)

// Store wraps a neo4j driver connection, scoping every operation to the
// database configured in internal/config's graph.database key.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewStore dials a neo4j/bolt endpoint. The connection is verified
// immediately so that configuration mistakes surface at startup rather than
// on the first sync.
func NewStore(ctx context.Context, uri, username, password, database string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, cverrors.Wrap(cverrors.KindUpstreamUnavailable, "create graph driver", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		return nil, cverrors.Wrap(cverrors.KindUpstreamUnavailable, "graph store unreachable", err)
	}

	return &Store{driver: driver, database: database}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) session(ctx context.Context, accessMode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   accessMode,
	})
}

// run executes a single write query, discarding results, used by upsert and
// edge-creation helpers.
func (s *Store) run(ctx context.Context, cypher string, params map[string]any) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, cypher, params)
	})
	if err != nil {
		return cverrors.Wrap(cverrors.KindUpstreamUnavailable, "graph write failed", err)
	}
	return nil
}

// Query is the escape hatch: arbitrary cypher-like text with params,
// returning raw rows as maps. Every caller is responsible for scoping rows
// to a repoId in the query itself.
func (s *Store) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var out []map[string]any
		for res.Next(ctx) {
			rec := res.Record()
			row := make(map[string]any, len(rec.Keys))
			for _, k := range rec.Keys {
				v, _ := rec.Get(k)
				row[k] = v
			}
			out = append(out, row)
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, cverrors.Wrap(cverrors.KindUpstreamUnavailable, "graph query failed", err)
	}
	rowsOut, ok := rows.([]map[string]any)
	if !ok {
		return nil, fmt.Errorf("graph query: unexpected result type %T", rows)
	}
	return rowsOut, nil
}
