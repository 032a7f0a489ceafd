// Package guard coordinates the per-call governance pipeline for AI
// capabilities.
//
// One capability invocation flows through the manager as:
//
//	Authorize -> admission check (quota) -> budget check (daily spend)
//	-> caller's business logic, optionally via the cache guard
//	-> RecordUsage (asynchronous cost accounting)
//
// Authorize is synchronous and blocks the request path; the caller
// needs the allow/deny answer before proceeding. RecordUsage never
// blocks: it charges the capability's static per-call cost from a
// goroutine after the response has been produced.
//
// The admission check runs before the budget check, so a call that is
// over quota is never also charged against the budget report.
package guard
