// Package simpleadmin provides the service layer behind the blog admin
// dashboard: post management over a pluggable content repository, media
// management over a pluggable media store, and reconciliation of which stored
// images are referenced by content.
//
// The dashboard itself is modelled as an immutable DashboardState snapshot.
// Reducers such as PostsLoaded or MediaRemoved return a new snapshot and
// recompute the UsagePartition through Reconcile; nothing mutates a snapshot
// in place.
//
// # Key Mapping
//
// Content records reference media by prefixed key (for example
// "images/a.png") while the media store lists keys relative to the media
// prefix and hands out time-limited URLs. KeyMapping makes the rule that maps
// a resolved MediaDescriptor back to its referenced key explicit and
// configurable instead of inferring it from the shape of the URL.
package simpleadmin
