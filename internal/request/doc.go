// Package request holds the request data model and its SQLite-backed store.
//
// The store keeps three groups of records: active requests (unique per
// content id, with requester sets and acquisition refs), immutable archive
// snapshots, and the identity records (users, admins, profiles) that drive
// quota and approval policy.
package request
