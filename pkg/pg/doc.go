// Package pg provides the PostgreSQL connection pool and schema migrations
// for the tables the execution core owns: the durable task queue
// (tasks, tasks_dlq) and the content embedding store (content_embeddings).
//
// All other relational entities (materials, schedules, posts, accounts)
// belong to the wider product's datastore; this core only reads and mutates
// them through repository interfaces supplied by the embedding application.
package pg
