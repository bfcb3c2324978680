// Package errors provides structured error types for better observability
// and programmatic error handling across millwork.
//
// Example usage:
//
//	err := errors.NewWithContext(
//	    errors.ErrCodeInvalidRecipe,
//	    "duration must be positive",
//	    map[string]any{
//	        "recipe": "millwork:gravel",
//	        "duration": 0,
//	    },
//	)
package errors
