package ctxkeys

// ContextKey is used for storing request-scoped authentication and metadata in context
type ContextKey string

// RequestContext stores the assembled per-request capability bag
const RequestContext ContextKey = "request_context"
