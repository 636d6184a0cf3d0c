package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeAnalyzeMiddleware() string {
	return `Finds duplicated middleware, inconsistent or unsafe middleware ordering, and consolidation opportunities in TypeScript and JavaScript projects.

USE WHEN:
- Reviewing a codebase's request pipeline before a refactor
- Checking that every route authenticates before it validates or authorizes
- Hunting copy-pasted auth or validation guards
- Deciding which exported middleware can be inlined or removed

INTERPRETING RESULTS:
- high inconsistent-pattern: validation or authorization runs before authentication; fix first
- medium inconsistent-pattern: a route deviates from the dominant order, or rate limiting runs late
- medium code-duplication: two implementations are more than 80% token-similar
- low code-duplication: 50-80% similar, review for shared logic
- legacy-code: exported middleware used at most once
- unnecessary-adapter: tiny exported middleware used in few places
- architectural: discovery notes and functional groups worth merging
- Usage counts grow as routes are analyzed; use order "routes-first" for complete counts

METRICS RETURNED:
- issues: type, severity, file, location, description, recommendation
- summary: file counts and issue counts by type, severity and file
- middleware: implementations, usages, ordering patterns, similarity statistics`
}

func describeMiddlewareSummary() string {
	return `Lists the middleware a project declares and how its routes chain them, without judging them.

USE WHEN:
- Getting oriented in an unfamiliar request pipeline
- Finding which routes share a middleware order
- Checking the conventional order before adding a new route

INTERPRETING RESULTS:
- ordering_patterns: each distinct chain and the routes using it; the largest is the convention
- conventional_order: chain order implied by pairwise precedence, empty when routes disagree cyclically
- unresolved_usages: middleware-shaped calls whose middleware could not be named (inline functions)

METRICS RETURNED:
- files: total, analyzed, skipped and failed counts by category
- middleware: implementations by file, usages by route, ordering patterns, similarity statistics`
}
