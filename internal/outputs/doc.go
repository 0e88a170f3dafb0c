// Package outputs copies finished iteration artifacts into the owned library
// directory so jobs do not depend on external URLs staying alive.
package outputs
