// Package errors provides structured errors for the campaign-api project.
//
// Errors carry a code, a message, and optional metadata. The codes map the
// failure taxonomy of the combat core onto gRPC status codes:
//
//   - validation failures -> InvalidArgument
//   - wrong encounter status, exhausted charges -> FailedPrecondition
//   - stale references -> NotFound
//   - lost compare-and-swap races -> Aborted
//   - a failed half of a dual write -> DataLoss (metadata names the half)
//   - storage/network failures -> wrapped Internal or Unavailable
//
// Creating and checking:
//
//	err := errors.NotFoundf("participant %s not found", id)
//	if errors.IsNotFound(err) { ... }
//
// Wrapping preserves the code of an already-coded error:
//
//	return errors.Wrap(err, "failed to load encounter")
//
// Validation uses the builder:
//
//	vb := errors.NewValidationBuilder()
//	errors.ValidateRequired("Name", input.Name, vb)
//	if err := vb.Build(); err != nil {
//	    return err
//	}
package errors
