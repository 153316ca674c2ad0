package store

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Schema the adapter establishes before loading: uniqueness constraints
// on every entity key, secondary indexes on the common filter fields,
// and full-text indexes over the searchable name/description pairs.
var schemaStatements = []string{
	`CREATE CONSTRAINT file_path IF NOT EXISTS FOR (f:File) REQUIRE f.path IS UNIQUE`,
	`CREATE CONSTRAINT function_id IF NOT EXISTS FOR (fn:Function) REQUIRE fn.id IS UNIQUE`,
	`CREATE CONSTRAINT endpoint_id IF NOT EXISTS FOR (e:Endpoint) REQUIRE e.id IS UNIQUE`,
	`CREATE CONSTRAINT concept_name IF NOT EXISTS FOR (c:Concept) REQUIRE c.name IS UNIQUE`,
	`CREATE CONSTRAINT component_id IF NOT EXISTS FOR (u:UIComponent) REQUIRE u.id IS UNIQUE`,

	`CREATE INDEX function_name IF NOT EXISTS FOR (fn:Function) ON (fn.name)`,
	`CREATE INDEX file_language IF NOT EXISTS FOR (f:File) ON (f.language)`,
	`CREATE INDEX endpoint_method IF NOT EXISTS FOR (e:Endpoint) ON (e.method)`,
	`CREATE INDEX endpoint_path IF NOT EXISTS FOR (e:Endpoint) ON (e.path)`,
	`CREATE INDEX concept_category IF NOT EXISTS FOR (c:Concept) ON (c.category)`,

	`CREATE FULLTEXT INDEX function_search IF NOT EXISTS FOR (fn:Function) ON EACH [fn.name, fn.description]`,
	`CREATE FULLTEXT INDEX concept_search IF NOT EXISTS FOR (c:Concept) ON EACH [c.name, c.description]`,
}

// ApplySchema runs every constraint and index statement. Statements that
// fail because the schema object already exists are swallowed; any other
// failure is a warning, never fatal.
func ApplySchema(ctx context.Context, driver Driver, log *zap.SugaredLogger) {
	for _, stmt := range schemaStatements {
		if err := driver.RunStatement(ctx, stmt); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "already exists") {
				continue
			}
			log.Warnw("schema statement failed", "statement", firstLine(stmt), "error", err)
		}
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
