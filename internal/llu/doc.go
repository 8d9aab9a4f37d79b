// Package llu holds the data model and error taxonomy of the LibreLinkUp follower API.
//
// Types in this package mirror the JSON payloads returned by the service. They are
// decoded once by the remote client and then treated as immutable values by the sync
// pipeline, the sinks and the presenter.
package llu
