// Package content holds the domain model of the automation pipeline:
// materials, schedules, pending posts, published posts, and social accounts.
//
// Entities are owned by the relational datastore; this package defines their
// shapes, lifecycles, and the small pieces of pure domain logic that belong
// to them (engagement rate, schedule advancement, preferred-hour selection).
// Persistence lives behind narrow repository interfaces declared by the
// components that need them.
package content
