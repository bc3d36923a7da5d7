package engine

// ResolveAction maps an HTTP verb to a canonical action. A verb outside
// the fixed mapping is a framework bug: callers must fail the request
// rather than default to allow or deny.
func ResolveAction(verb string) (string, error) {
	switch verb {
	case "GET", "HEAD":
		return ActionRead, nil
	case "POST":
		return ActionCreate, nil
	case "PUT", "PATCH":
		return ActionUpdate, nil
	case "DELETE":
		return ActionDelete, nil
	default:
		return "", UnsupportedVerbError(verb)
	}
}
