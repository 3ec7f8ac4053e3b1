// Package domain contains the core business entities, value objects, and
// domain logic of the application: jobs, their lifecycle states, and the
// progress messages they publish. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
