// Package errors provides coded, categorized errors for relight.
//
// Every user-facing failure has a stable code (e.g. E300 "No free port")
// registered in registry.go. Codes carry a category, a short message, an
// optional detail paragraph, and a fix suggestion. Format renders an error
// for the terminal with a ✗ marker so failures are visually separable from
// routine log output.
//
// Usage:
//
//	return errors.New("E301").WithDetail("server = " + entry)
//
//	if re, ok := errors.AsRelightError(err); ok {
//	    fmt.Fprint(os.Stderr, re.Format())
//	}
package errors
