/*
Package distance is the driving-distance collaborator consumed by the
payment capture wizard's mileage step.

PURPOSE:
  Wraps the external routing service behind a small Calculator interface.
  The engine never geocodes anything itself; it sends two addresses and a
  round-trip flag and gets miles back. Failures are ordinary errors, never
  panics - the wizard degrades to manual mileage entry.

IMPLEMENTATIONS:
  Client: HTTP client (resty) against the routing service
  Static: Fixed route table for dev scenarios and tests
*/
package distance

import "context"

// Request describes one route lookup.
type Request struct {
	StartAddress string `json:"startAddress"`
	EndAddress   string `json:"endAddress"`
	RoundTrip    bool   `json:"roundTrip"`
}

// Result is the routing service's answer. Status is "success" or "error";
// on error DistanceMiles is meaningless and Error holds the reason.
type Result struct {
	Status        string  `json:"status"`
	DistanceMiles float64 `json:"distanceMiles,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// Calculator resolves driving distance between two addresses.
// Implementations must report unresolved or ambiguous addresses through the
// returned error, not a panic.
type Calculator interface {
	Distance(ctx context.Context, req Request) (Result, error)
}
