// Package policy evaluates route and feature access for Secret Safe
// surfaces.
//
// # Model
//
// A static table maps route path patterns and named features to one of three
// requirements: public, minimum role, or exact role set. Roles form a strict
// three-level hierarchy: reader(1) < writer(2) < admin(3). A minimum-role
// requirement passes when the user's rank is at least the required rank; an
// exact-set requirement passes only when the user's role is literally in the
// set, hierarchy notwithstanding.
//
// Denial is a normal return value, never an error: callers redirect or hide
// controls based on the Decision. Evaluation here gates UI affordances only;
// the backend re-checks authorization on every request.
package policy
