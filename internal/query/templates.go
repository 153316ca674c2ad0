// Package query answers questions about the code knowledge graph, via
// parameterized Cypher templates and a natural-language front-end.
package query

// Clamp01 keeps a percentage-like value inside [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FindFunction matches functions whose name contains the substring.
func FindFunction(substr string) (string, map[string]any) {
	return `
		MATCH (fn:Function)
		WHERE toLower(fn.name) CONTAINS toLower($needle)
		RETURN fn.name AS name, fn.file AS file, fn.startLine AS startLine, fn.endLine AS endLine
		ORDER BY fn.file, fn.startLine`,
		map[string]any{"needle": substr}
}

// FindCallers returns the functions calling the named function.
func FindCallers(name string) (string, map[string]any) {
	return `
		MATCH (caller:Function)-[r:CALLS]->(fn:Function {name: $name})
		RETURN caller.name AS name, caller.file AS file, r.line AS line
		ORDER BY caller.file, r.line`,
		map[string]any{"name": name}
}

// FindCallees returns the functions the named function calls.
func FindCallees(name string) (string, map[string]any) {
	return `
		MATCH (fn:Function {name: $name})-[r:CALLS]->(callee:Function)
		RETURN callee.name AS name, callee.file AS file, r.line AS line
		ORDER BY r.line`,
		map[string]any{"name": name}
}

// AllEndpoints lists every endpoint with its defining file.
func AllEndpoints() (string, map[string]any) {
	return `
		MATCH (e:Endpoint)
		OPTIONAL MATCH (f:File)-[:DEFINES]->(e)
		RETURN e.method AS method, e.path AS path, e.handlerName AS handler, f.path AS file
		ORDER BY e.path, e.method`,
		nil
}

// EndpointDependencies walks from an endpoint's handler through up to
// three CALLS hops.
func EndpointDependencies(method, path string) (string, map[string]any) {
	return `
		MATCH (e:Endpoint {id: $id})-[:ROUTES_TO]->(handler:Function)
		MATCH (handler)-[:CALLS*0..3]->(dep:Function)
		RETURN DISTINCT dep.name AS name, dep.file AS file, dep.startLine AS startLine
		ORDER BY dep.file, dep.startLine`,
		map[string]any{"id": method + ":" + path}
}

// UIToAPI links calling files (and their UI components) to endpoints.
func UIToAPI() (string, map[string]any) {
	return `
		MATCH (f:File)-[r:CALLS_API]->(e:Endpoint)
		OPTIONAL MATCH (f)-[:CONTAINS]->(u:UIComponent)
		RETURN f.path AS file, r.type AS callType, e.method AS method, e.path AS path,
		       collect(DISTINCT u.name) AS components
		ORDER BY f.path, e.path`,
		nil
}

// SimilarCode lists similarity edges at or above the floor.
func SimilarCode(minSimilarity float64) (string, map[string]any) {
	return `
		MATCH (a:Function)-[r:SIMILAR_TO]-(b:Function)
		WHERE r.similarity >= $floor AND a.id < b.id
		RETURN a.name AS source, a.file AS sourceFile, b.name AS target, b.file AS targetFile,
		       r.similarity AS similarity, r.type AS type
		ORDER BY r.similarity DESC`,
		map[string]any{"floor": Clamp01(minSimilarity)}
}

// ConceptsWithImplementers lists concepts and the functions implementing
// them.
func ConceptsWithImplementers() (string, map[string]any) {
	return `
		MATCH (c:Concept)
		OPTIONAL MATCH (fn:Function)-[:IMPLEMENTS]->(c)
		RETURN c.name AS concept, c.category AS category, c.description AS description,
		       collect(DISTINCT fn.name) AS implementers
		ORDER BY c.name`,
		nil
}

// DataFlowForConcept traces the functions behind a concept and what they
// call.
func DataFlowForConcept(name string) (string, map[string]any) {
	return `
		MATCH (fn:Function)-[:IMPLEMENTS|READS_DATA]->(c:Concept {name: $name})
		OPTIONAL MATCH (fn)-[:CALLS]->(dep:Function)
		RETURN fn.name AS function, fn.file AS file,
		       collect(DISTINCT dep.name) AS calls
		ORDER BY fn.file`,
		map[string]any{"name": name}
}

// ImpactAnalysis finds everything within three reverse CALLS hops of a
// function, plus the endpoints routing to it.
func ImpactAnalysis(functionName string) (string, map[string]any) {
	return `
		MATCH (fn:Function {name: $name})
		OPTIONAL MATCH (dependent:Function)-[:CALLS*1..3]->(fn)
		OPTIONAL MATCH (e:Endpoint)-[:ROUTES_TO]->(fn)
		RETURN fn.file AS definedIn,
		       collect(DISTINCT dependent.name) AS dependents,
		       collect(DISTINCT e.id) AS endpoints`,
		map[string]any{"name": functionName}
}

// Overview counts nodes per label.
func Overview() (string, map[string]any) {
	return `
		MATCH (n)
		RETURN labels(n)[0] AS label, count(*) AS count
		ORDER BY count DESC`,
		nil
}
