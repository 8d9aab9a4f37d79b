// Package session owns the authenticated session with the remote glucose service.
//
// A Manager holds the region, bearer token and account identity of a single follower
// account and is the only component allowed to mutate them. Its states are:
//
//	Empty ──login──▶ Authenticated ──401 / token exp──▶ Expired
//	  ▲                    ▲                               │
//	  └──────logout────────┴──────────relogin──────────────┘
//
// Authenticated calls never retry on their own. A 401 is surfaced as a token-expired
// llu.AuthenticationError; callers decide whether to call Relogin and try again.
package session
