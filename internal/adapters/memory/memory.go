// Package memory provides in-process implementations of the persistence and
// cache ports. They back unit-test fixtures and the single-binary dev mode;
// semantics mirror the Postgres/Redis adapters, including exactly-once CSRF
// consumption and atomic lockout threshold crossing.
package memory
